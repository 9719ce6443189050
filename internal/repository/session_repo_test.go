package repository

import "testing"

func TestNormalizeSortField(t *testing.T) {
	cases := []struct {
		in   string
		want SortField
	}{
		{"session_start", SortBySessionStart},
		{"  Score ", SortByScore},
		{"MANAGER_NAME", SortByManagerName},
		{"nonexistent_field", SortBySessionStart},
		{"", SortBySessionStart},
		{"'; DROP TABLE training_sessions; --", SortBySessionStart},
	}
	for _, tc := range cases {
		if got := NormalizeSortField(tc.in); got != tc.want {
			t.Fatalf("NormalizeSortField(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeSortDir(t *testing.T) {
	if got := NormalizeSortDir("asc"); got != "ASC" {
		t.Fatalf("expected ASC, got %s", got)
	}
	if got := NormalizeSortDir("ASC "); got != "ASC" {
		t.Fatalf("expected ASC, got %s", got)
	}
	for _, in := range []string{"", "desc", "sideways"} {
		if got := NormalizeSortDir(in); got != "DESC" {
			t.Fatalf("NormalizeSortDir(%q) = %s, want DESC", in, got)
		}
	}
}

func TestBuildSessionFilter(t *testing.T) {
	where, args := buildSessionFilter(SessionFilter{})
	if where != "" || len(args) != 0 {
		t.Fatalf("empty filter must produce no clause, got %q %v", where, args)
	}

	where, args = buildSessionFilter(SessionFilter{ManagerName: " Alex ", Status: "completed"})
	if where != "WHERE manager_name = $1 AND status = $2" {
		t.Fatalf("unexpected clause %q", where)
	}
	if len(args) != 2 || args[0] != "Alex" || args[1] != "completed" {
		t.Fatalf("unexpected args %v", args)
	}

	where, args = buildSessionFilter(SessionFilter{Status: "active"})
	if where != "WHERE status = $1" || len(args) != 1 {
		t.Fatalf("unexpected clause %q args %v", where, args)
	}
}

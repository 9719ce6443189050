package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"moonai-trainer/internal/domain"
)

type mockUserRepo struct {
	byUsername map[string]domain.User
	created    []domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byUsername: make(map[string]domain.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User) error {
	m.created = append(m.created, user)
	m.byUsername[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	for _, u := range m.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo)

	user, err := svc.Register(context.Background(), "alex", "secreto123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.Username != "alex" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "secreto123" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secreto123")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo)

	if _, err := svc.Register(context.Background(), "alex", "pass"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "alex", "otra"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo)
	if _, err := svc.Register(context.Background(), "alex", "secreto123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "alex", "secreto123"); err != nil {
		t.Fatalf("expected successful login, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alex", "mala"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nadie", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user must map to ErrInvalidCredentials, got %v", err)
	}
}

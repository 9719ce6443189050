package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSystemPromptFallsBackToDefault(t *testing.T) {
	svc := NewPromptService(filepath.Join(t.TempDir(), "missing.txt"), zap.NewNop())

	prompt := svc.SystemPrompt()
	if prompt != defaultSystemPrompt {
		t.Fatalf("expected embedded default when file is missing")
	}
}

func TestSaveAndReadSystemPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts", "system_prompt.txt")
	svc := NewPromptService(path, zap.NewNop())

	if err := svc.SaveSystemPrompt("  Nuevo prompt base  "); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := svc.SystemPrompt(); got != "Nuevo prompt base" {
		t.Fatalf("expected saved prompt, got %q", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "Nuevo prompt base" {
		t.Fatalf("unexpected file contents: %q", string(data))
	}
}

func TestSaveSystemPromptRejectsEmpty(t *testing.T) {
	svc := NewPromptService(filepath.Join(t.TempDir(), "p.txt"), zap.NewNop())

	if err := svc.SaveSystemPrompt("   "); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}

func TestBuildSessionPromptSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.txt")
	svc := NewPromptService(path, zap.NewNop())
	if err := svc.SaveSystemPrompt("base"); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := svc.BuildSessionPrompt("CRM para clinicas", "hard")
	want := "base\n\nProduct context: CRM para clinicas\n\nDifficulty level: hard"
	if got != want {
		t.Fatalf("unexpected prompt:\n%q", got)
	}

	if got := svc.BuildSessionPrompt("", ""); got != "base" {
		t.Fatalf("blank sections must be omitted, got %q", got)
	}
}

package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// defaultSystemPrompt es la plantilla base del agente cuando todavía no hay
// archivo de prompt. Los marcadores {{...}} los sustituye el agente de voz con
// las dynamic variables de la sesión.
const defaultSystemPrompt = `Ты играешь роль делового клиента ({{client_type}}) на тренировочном звонке менеджера по продажам.

Твоё поведение: {{client_behavior_description}}

Контекст продукта: {{product_description}}
Уровень сложности: {{difficulty_level}}

Веди себя как живой человек: отвечай голосом клиента, возражай естественно и не выходи из роли.

Когда тебя попросят оценить разговор, оцени работу менеджера по шкале от 0 до 10, отметь сильные стороны, зоны роста и ключевые моменты звонка.`

// PromptService administra el system prompt base: un archivo de texto con un
// default embebido como fallback.
type PromptService struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewPromptService(path string, logger *zap.Logger) *PromptService {
	return &PromptService{
		path:   path,
		logger: logger,
	}
}

// SystemPrompt devuelve el prompt base actual. Si el archivo no existe o no se
// puede leer, cae al default embebido sin fallar.
func (s *PromptService) SystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read system prompt file failed", zap.String("path", s.path), zap.Error(err))
		}
		return defaultSystemPrompt
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

// SaveSystemPrompt persiste un nuevo prompt base.
func (s *PromptService) SaveSystemPrompt(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("system prompt is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create prompt dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(prompt+"\n"), 0o644); err != nil {
		return fmt.Errorf("write prompt file: %w", err)
	}
	return nil
}

// BuildSessionPrompt renderiza el prompt de una sesión concreta: la plantilla
// base más las secciones de contexto aportadas por el trainer.
func (s *PromptService) BuildSessionPrompt(clientDescription, difficultyLevel string) string {
	sections := []string{s.SystemPrompt()}
	if v := strings.TrimSpace(clientDescription); v != "" {
		sections = append(sections, "Product context: "+v)
	}
	if v := strings.TrimSpace(difficultyLevel); v != "" {
		sections = append(sections, "Difficulty level: "+v)
	}
	return strings.Join(sections, "\n\n")
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"moonai-trainer/internal/domain"
	"moonai-trainer/internal/llm"
)

// AnalysisErrorKind distingue fallas de transporte de fallas de validación:
// transporte es un problema de red/servicio, validación indica un problema de
// prompt o de modelo y se loguea distinto.
type AnalysisErrorKind int

const (
	AnalysisErrTransport AnalysisErrorKind = iota + 1
	AnalysisErrValidation
)

// AnalysisError es el resultado tipado de una falla de análisis; el manejador
// de ciclo de vida decide los campos degradados según el Kind.
type AnalysisError struct {
	Kind AnalysisErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	switch e.Kind {
	case AnalysisErrValidation:
		return "analysis validation error: " + e.Err.Error()
	default:
		return "analysis transport error: " + e.Err.Error()
	}
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// AnalysisService evalúa transcripciones con el LLM y valida el resultado
// contra el esquema fijo de ConversationAnalysis.
type AnalysisService struct {
	llmClient llm.ChatClient
	logger    *zap.Logger
}

func NewAnalysisService(llmClient llm.ChatClient, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		llmClient: llmClient,
		logger:    logger,
	}
}

const analysisTemperature = 0.2

// Analyse construye el prompt de dos mensajes (el system prompt original de la
// sesión más la transcripción con la instrucción de esquema) e invoca el LLM en
// modo JSON. Devuelve siempre el texto crudo de la respuesta, incluso cuando la
// validación falla, para auditoría.
//
// El score se acepta tal cual: el pipeline no lo recorta al rango [0,10].
func (s *AnalysisService) Analyse(ctx context.Context, conversationLog, sessionSystemPrompt string) (domain.ConversationAnalysis, string, error) {
	req := llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: sessionSystemPrompt},
			{Role: "user", Content: buildAnalysisInstruction(conversationLog)},
		},
		Temperature: analysisTemperature,
		JSONOnly:    true,
	}

	raw, err := s.llmClient.Complete(ctx, req)
	if err != nil {
		s.logger.Error("analysis llm call failed", zap.Error(err))
		return domain.ConversationAnalysis{}, "", &AnalysisError{Kind: AnalysisErrTransport, Err: err}
	}

	analysis, err := parseAnalysisResponse(raw)
	if err != nil {
		s.logger.Error("analysis response rejected",
			zap.Error(err),
			zap.String("content", truncate(raw, 500)),
		)
		return domain.ConversationAnalysis{}, raw, &AnalysisError{Kind: AnalysisErrValidation, Err: err}
	}

	return analysis, raw, nil
}

func buildAnalysisInstruction(conversationLog string) string {
	return "Conversation transcript:\n" + conversationLog + "\n\n" +
		"Provide a JSON object with keys: score (0-10 number), strengths (list of strings)," +
		" areas_for_improvement (list of strings), specific_feedback (string)," +
		" key_moments (list of strings)."
}

// analysisPayload usa punteros para distinguir campo ausente de valor cero;
// un campo faltante es error de validación, nunca se coacciona a vacío.
type analysisPayload struct {
	Score               *float64  `json:"score"`
	Strengths           *[]string `json:"strengths"`
	AreasForImprovement *[]string `json:"areas_for_improvement"`
	SpecificFeedback    *string   `json:"specific_feedback"`
	KeyMoments          *[]string `json:"key_moments"`
}

func parseAnalysisResponse(raw string) (domain.ConversationAnalysis, error) {
	cleaned := cleanJSONResponse(raw)
	if cleaned == "" {
		return domain.ConversationAnalysis{}, fmt.Errorf("empty analysis response")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		// Último recurso: el modelo pudo rodear el objeto con texto.
		extracted := extractFirstJSONObject(cleaned)
		if extracted == "" {
			return domain.ConversationAnalysis{}, fmt.Errorf("parse analysis response: %w", err)
		}
		payload = analysisPayload{}
		if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
			return domain.ConversationAnalysis{}, fmt.Errorf("parse analysis response: %w", err)
		}
	}

	switch {
	case payload.Score == nil:
		return domain.ConversationAnalysis{}, fmt.Errorf("analysis response missing field: score")
	case payload.Strengths == nil:
		return domain.ConversationAnalysis{}, fmt.Errorf("analysis response missing field: strengths")
	case payload.AreasForImprovement == nil:
		return domain.ConversationAnalysis{}, fmt.Errorf("analysis response missing field: areas_for_improvement")
	case payload.SpecificFeedback == nil:
		return domain.ConversationAnalysis{}, fmt.Errorf("analysis response missing field: specific_feedback")
	case payload.KeyMoments == nil:
		return domain.ConversationAnalysis{}, fmt.Errorf("analysis response missing field: key_moments")
	}

	return domain.ConversationAnalysis{
		Score:               *payload.Score,
		Strengths:           *payload.Strengths,
		AreasForImprovement: *payload.AreasForImprovement,
		SpecificFeedback:    *payload.SpecificFeedback,
		KeyMoments:          *payload.KeyMoments,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// cleanJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func cleanJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// extractFirstJSONObject devuelve el primer objeto JSON balanceado del input.
func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}

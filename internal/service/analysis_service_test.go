package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"moonai-trainer/internal/llm"
)

const validAnalysisJSON = `{
	"score": 7.5,
	"strengths": ["хорошее приветствие", "работа с возражениями"],
	"areas_for_improvement": ["закрытие сделки"],
	"specific_feedback": "Менеджер уверенно вёл разговор, но не предложил следующий шаг.",
	"key_moments": ["возражение о цене"]
}`

func TestAnalyseHappyPath(t *testing.T) {
	llmClient := &llm.MockClient{Response: validAnalysisJSON}
	svc := NewAnalysisService(llmClient, zap.NewNop())

	analysis, raw, err := svc.Analyse(context.Background(), "manager: hola\nclient: adios", "system prompt de la sesion")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if analysis.Score != 7.5 {
		t.Fatalf("expected score 7.5, got %v", analysis.Score)
	}
	if len(analysis.Strengths) != 2 || len(analysis.AreasForImprovement) != 1 || len(analysis.KeyMoments) != 1 {
		t.Fatalf("unexpected list fields: %+v", analysis)
	}
	if analysis.SpecificFeedback == "" {
		t.Fatalf("expected feedback text")
	}
	if raw != validAnalysisJSON {
		t.Fatalf("raw payload must be preserved verbatim")
	}

	req := llmClient.LastReq
	if len(req.Messages) != 2 {
		t.Fatalf("expected two messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != "system prompt de la sesion" {
		t.Fatalf("expected the session system prompt as first message")
	}
	if req.Messages[1].Role != "user" {
		t.Fatalf("expected transcript in user message")
	}
	if req.Temperature != 0.2 || !req.JSONOnly {
		t.Fatalf("expected low temperature and JSON-only mode, got %+v", req)
	}
}

func TestAnalyseTransportError(t *testing.T) {
	transportErr := errors.New("timeout")
	svc := NewAnalysisService(&llm.MockClient{Err: transportErr}, zap.NewNop())

	_, raw, err := svc.Analyse(context.Background(), "log", "prompt")
	if err == nil {
		t.Fatalf("expected error")
	}
	var ae *AnalysisError
	if !errors.As(err, &ae) || ae.Kind != AnalysisErrTransport {
		t.Fatalf("expected transport kind, got %v", err)
	}
	if !errors.Is(err, transportErr) {
		t.Fatalf("expected wrapped cause")
	}
	if raw != "" {
		t.Fatalf("no raw payload on transport failure")
	}
}

func TestAnalyseMissingFeedbackIsValidationError(t *testing.T) {
	response := `{"score": 5, "strengths": [], "areas_for_improvement": [], "key_moments": []}`
	svc := NewAnalysisService(&llm.MockClient{Response: response}, zap.NewNop())

	_, raw, err := svc.Analyse(context.Background(), "log", "prompt")
	var ae *AnalysisError
	if !errors.As(err, &ae) || ae.Kind != AnalysisErrValidation {
		t.Fatalf("missing specific_feedback must be a validation error, got %v", err)
	}
	if raw != response {
		t.Fatalf("raw payload must be kept even on schema failure")
	}
}

func TestAnalyseWrongTypeIsValidationError(t *testing.T) {
	response := `{"score": "nine", "strengths": [], "areas_for_improvement": [], "specific_feedback": "ok", "key_moments": []}`
	svc := NewAnalysisService(&llm.MockClient{Response: response}, zap.NewNop())

	_, _, err := svc.Analyse(context.Background(), "log", "prompt")
	var ae *AnalysisError
	if !errors.As(err, &ae) || ae.Kind != AnalysisErrValidation {
		t.Fatalf("non-numeric score must be a validation error, got %v", err)
	}
}

// El pipeline no recorta el score al rango [0,10]; un scorer fuera de rango
// pasa tal cual.
func TestAnalyseScoreOutOfRange(t *testing.T) {
	response := `{"score": 12, "strengths": [], "areas_for_improvement": [], "specific_feedback": "ok", "key_moments": []}`
	svc := NewAnalysisService(&llm.MockClient{Response: response}, zap.NewNop())

	analysis, _, err := svc.Analyse(context.Background(), "log", "prompt")
	if err != nil {
		t.Fatalf("expected pass-through, got %v", err)
	}
	if analysis.Score != 12 {
		t.Fatalf("expected unclamped score 12, got %v", analysis.Score)
	}
}

func TestAnalyseCleansMarkdownFences(t *testing.T) {
	svc := NewAnalysisService(&llm.MockClient{Response: "```json\n" + validAnalysisJSON + "\n```"}, zap.NewNop())

	analysis, _, err := svc.Analyse(context.Background(), "log", "prompt")
	if err != nil {
		t.Fatalf("expected fenced JSON to parse, got %v", err)
	}
	if analysis.Score != 7.5 {
		t.Fatalf("expected score 7.5, got %v", analysis.Score)
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	input := `El resultado es {"a": {"b": "}"}} y nada mas`
	got := extractFirstJSONObject(input)
	if got != `{"a": {"b": "}"}}` {
		t.Fatalf("unexpected extraction: %q", got)
	}

	if got := extractFirstJSONObject("sin json"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

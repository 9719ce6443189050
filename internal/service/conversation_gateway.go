package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"moonai-trainer/internal/elevenlabs"
)

var (
	// ErrVoiceAgentNotConfigured: falta agent id o credencial; error de
	// configuración, se reporta antes de cualquier llamada de red.
	ErrVoiceAgentNotConfigured = errors.New("voice agent not configured")
	// ErrSignedURLMissing: el servicio respondió pero sin URL firmada.
	ErrSignedURLMissing = errors.New("signed url missing from voice agent response")
	// ErrConversationIDMissing: ni la respuesta ni la URL traen conversation id.
	ErrConversationIDMissing = errors.New("conversation id missing from voice agent response")
)

// RemoteSession es el resultado de abrir una conversación remota.
type RemoteSession struct {
	ConversationID string
	SignedURL      string
}

// ConversationGateway negocia la sesión con el agente conversacional remoto.
type ConversationGateway struct {
	api     elevenlabs.API
	agentID string
	logger  *zap.Logger
}

func NewConversationGateway(api elevenlabs.API, agentID string, logger *zap.Logger) *ConversationGateway {
	return &ConversationGateway{
		api:     api,
		agentID: strings.TrimSpace(agentID),
		logger:  logger,
	}
}

// CreateRemoteSession valida configuración, pide la URL firmada con los
// overrides de la sesión y extrae el conversation id. La validación previa del
// agente es solo diagnóstica: su falla se loguea como warning y no aborta; la
// URL firmada sí es fatal.
func (g *ConversationGateway) CreateRemoteSession(ctx context.Context, overrides, variables map[string]any) (RemoteSession, error) {
	if g.api == nil || !g.api.Configured() || g.agentID == "" {
		return RemoteSession{}, ErrVoiceAgentNotConfigured
	}

	if _, err := g.api.GetAgent(ctx, g.agentID); err != nil {
		g.logger.Warn("agent validation failed",
			zap.String("agent_id", g.agentID),
			zap.Error(err),
		)
	}

	resp, err := g.api.GetSignedURL(ctx, elevenlabs.SignedURLRequest{
		AgentID:                    g.agentID,
		IncludeConversationID:      true,
		ConversationConfigOverride: overrides,
		DynamicVariables:           variables,
	})
	if err != nil {
		return RemoteSession{}, fmt.Errorf("get signed url: %w", err)
	}

	signedURL := strings.TrimSpace(resp.SignedURL)
	if signedURL == "" {
		return RemoteSession{}, ErrSignedURLMissing
	}

	conversationID := strings.TrimSpace(resp.ConversationID)
	if conversationID == "" {
		// El id puede venir embebido en la URL en lugar de como campo propio.
		conversationID = conversationIDFromURL(signedURL)
	}
	if conversationID == "" {
		return RemoteSession{}, ErrConversationIDMissing
	}

	return RemoteSession{
		ConversationID: conversationID,
		SignedURL:      signedURL,
	}, nil
}

// FetchAgentPrompt trae el prompt configurado en el agente remoto. A diferencia
// de la validación en CreateRemoteSession, aquí el lookup sí es fatal.
func (g *ConversationGateway) FetchAgentPrompt(ctx context.Context) (string, error) {
	if g.api == nil || !g.api.Configured() || g.agentID == "" {
		return "", ErrVoiceAgentNotConfigured
	}
	agent, err := g.api.GetAgent(ctx, g.agentID)
	if err != nil {
		return "", fmt.Errorf("get agent: %w", err)
	}
	prompt := strings.TrimSpace(agent.SystemPrompt)
	if prompt == "" {
		return "", fmt.Errorf("agent %s has no prompt configured", g.agentID)
	}
	return prompt, nil
}

func conversationIDFromURL(signedURL string) string {
	parsed, err := url.Parse(signedURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Query().Get("conversation_id"))
}

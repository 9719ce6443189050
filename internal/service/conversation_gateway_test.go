package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"moonai-trainer/internal/elevenlabs"
)

func TestGatewayFailsFastWhenNotConfigured(t *testing.T) {
	cases := []struct {
		name    string
		api     *elevenlabs.MockClient
		agentID string
	}{
		{"missing credential", &elevenlabs.MockClient{IsConfigured: false}, "agent-1"},
		{"missing agent id", &elevenlabs.MockClient{IsConfigured: true}, "  "},
	}

	for _, tc := range cases {
		gw := NewConversationGateway(tc.api, tc.agentID, zap.NewNop())
		_, err := gw.CreateRemoteSession(context.Background(), nil, nil)
		if !errors.Is(err, ErrVoiceAgentNotConfigured) {
			t.Fatalf("%s: expected ErrVoiceAgentNotConfigured, got %v", tc.name, err)
		}
		if tc.api.AgentCalls != 0 {
			t.Fatalf("%s: config errors must be reported before any remote call", tc.name)
		}
	}
}

func TestGatewayAgentValidationFailureIsNotFatal(t *testing.T) {
	api := &elevenlabs.MockClient{
		IsConfigured: true,
		AgentErr:     errors.New("agent lookup down"),
		SignedURL: elevenlabs.SignedURLResponse{
			SignedURL:      "wss://agent.example/ws?token=abc",
			ConversationID: "conv-1",
		},
	}
	gw := NewConversationGateway(api, "agent-1", zap.NewNop())

	remote, err := gw.CreateRemoteSession(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("expected success despite validation failure, got %v", err)
	}
	if remote.ConversationID != "conv-1" || remote.SignedURL == "" {
		t.Fatalf("unexpected remote session: %+v", remote)
	}
	if api.AgentCalls != 1 {
		t.Fatalf("expected one diagnostic agent lookup")
	}
}

func TestGatewayEmptySignedURLIsContractError(t *testing.T) {
	api := &elevenlabs.MockClient{
		IsConfigured: true,
		SignedURL:    elevenlabs.SignedURLResponse{SignedURL: "  ", ConversationID: "conv-1"},
	}
	gw := NewConversationGateway(api, "agent-1", zap.NewNop())

	_, err := gw.CreateRemoteSession(context.Background(), nil, nil)
	if !errors.Is(err, ErrSignedURLMissing) {
		t.Fatalf("expected ErrSignedURLMissing, got %v", err)
	}
}

func TestGatewayExtractsConversationIDFromURL(t *testing.T) {
	api := &elevenlabs.MockClient{
		IsConfigured: true,
		SignedURL: elevenlabs.SignedURLResponse{
			SignedURL: "wss://agent.example/ws?token=abc&conversation_id=conv-from-url",
		},
	}
	gw := NewConversationGateway(api, "agent-1", zap.NewNop())

	remote, err := gw.CreateRemoteSession(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if remote.ConversationID != "conv-from-url" {
		t.Fatalf("expected id from url, got %q", remote.ConversationID)
	}
}

func TestGatewayMissingConversationIDIsContractError(t *testing.T) {
	api := &elevenlabs.MockClient{
		IsConfigured: true,
		SignedURL:    elevenlabs.SignedURLResponse{SignedURL: "wss://agent.example/ws?token=abc"},
	}
	gw := NewConversationGateway(api, "agent-1", zap.NewNop())

	_, err := gw.CreateRemoteSession(context.Background(), nil, nil)
	if !errors.Is(err, ErrConversationIDMissing) {
		t.Fatalf("expected ErrConversationIDMissing, got %v", err)
	}
}

func TestGatewayTransportErrorIsWrapped(t *testing.T) {
	transportErr := errors.New("connection refused")
	api := &elevenlabs.MockClient{
		IsConfigured: true,
		SignedErr:    transportErr,
	}
	gw := NewConversationGateway(api, "agent-1", zap.NewNop())

	_, err := gw.CreateRemoteSession(context.Background(), nil, nil)
	if !errors.Is(err, transportErr) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestGatewayPassesOverridesAndVariables(t *testing.T) {
	api := &elevenlabs.MockClient{
		IsConfigured: true,
		SignedURL: elevenlabs.SignedURLResponse{
			SignedURL:      "wss://agent.example/ws",
			ConversationID: "conv-1",
		},
	}
	gw := NewConversationGateway(api, "agent-1", zap.NewNop())

	override := BuildConversationOverride("prompt", "hola", "")
	variables := BuildDynamicVariables("desc", "easy", "Скептик")
	if _, err := gw.CreateRemoteSession(context.Background(), override, variables); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	req := api.LastSignedReq
	if req.AgentID != "agent-1" || !req.IncludeConversationID {
		t.Fatalf("unexpected signed url request: %+v", req)
	}
	if req.ConversationConfigOverride == nil || req.DynamicVariables == nil {
		t.Fatalf("expected session config to be passed through")
	}
}

func TestGatewayFetchAgentPrompt(t *testing.T) {
	api := &elevenlabs.MockClient{
		IsConfigured: true,
		Agent:        elevenlabs.Agent{AgentID: "agent-1", SystemPrompt: "prompt remoto"},
	}
	gw := NewConversationGateway(api, "agent-1", zap.NewNop())

	prompt, err := gw.FetchAgentPrompt(context.Background())
	if err != nil {
		t.Fatalf("expected prompt, got %v", err)
	}
	if prompt != "prompt remoto" {
		t.Fatalf("unexpected prompt %q", prompt)
	}

	api.AgentErr = errors.New("down")
	if _, err := gw.FetchAgentPrompt(context.Background()); err == nil {
		t.Fatalf("lookup failure must be fatal for prompt sync")
	}
}

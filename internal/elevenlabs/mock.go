package elevenlabs

import "context"

// MockClient permite tests sin llamar al servicio de voz real.
type MockClient struct {
	IsConfigured bool
	Agent        Agent
	AgentErr     error
	SignedURL    SignedURLResponse
	SignedErr    error

	AgentCalls    int
	LastSignedReq SignedURLRequest
}

func (m *MockClient) Configured() bool {
	return m.IsConfigured
}

func (m *MockClient) GetAgent(ctx context.Context, agentID string) (Agent, error) {
	m.AgentCalls++
	return m.Agent, m.AgentErr
}

func (m *MockClient) GetSignedURL(ctx context.Context, req SignedURLRequest) (SignedURLResponse, error) {
	m.LastSignedReq = req
	return m.SignedURL, m.SignedErr
}

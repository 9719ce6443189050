package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error
	LastReq  ChatRequest
}

func (m *MockClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	m.LastReq = req
	return m.Response, m.Err
}

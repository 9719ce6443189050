package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Agent es la vista mínima que usamos del agente conversacional remoto.
type Agent struct {
	AgentID      string `json:"agent_id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"-"`
}

// SignedURLRequest pide un endpoint firmado con la configuración de la sesión.
type SignedURLRequest struct {
	AgentID                    string         `json:"agent_id"`
	IncludeConversationID      bool           `json:"include_conversation_id"`
	ConversationConfigOverride map[string]any `json:"conversation_config_override,omitempty"`
	DynamicVariables           map[string]any `json:"dynamic_variables,omitempty"`
}

// SignedURLResponse es la respuesta del servicio remoto. Ninguno de los dos
// campos está garantizado; el gateway valida presencia antes de usarlos.
type SignedURLResponse struct {
	SignedURL      string `json:"signed_url"`
	ConversationID string `json:"conversation_id"`
}

// API define las operaciones que consumimos del servicio de voz.
type API interface {
	// Configured indica si el cliente tiene credencial para llamar al servicio.
	Configured() bool
	GetAgent(ctx context.Context, agentID string) (Agent, error)
	GetSignedURL(ctx context.Context, req SignedURLRequest) (SignedURLResponse, error)
}

// HTTPClient implementa API contra la REST del proveedor de voz.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL, apiKey string, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (c *HTTPClient) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

func (c *HTTPClient) GetAgent(ctx context.Context, agentID string) (Agent, error) {
	var payload struct {
		AgentID            string `json:"agent_id"`
		Name               string `json:"name"`
		ConversationConfig struct {
			Agent struct {
				Prompt struct {
					Prompt string `json:"prompt"`
				} `json:"prompt"`
			} `json:"agent"`
		} `json:"conversation_config"`
	}

	if err := c.doJSON(ctx, http.MethodGet, "/v1/convai/agents/"+agentID, nil, &payload); err != nil {
		return Agent{}, err
	}

	return Agent{
		AgentID:      payload.AgentID,
		Name:         payload.Name,
		SystemPrompt: payload.ConversationConfig.Agent.Prompt.Prompt,
	}, nil
}

func (c *HTTPClient) GetSignedURL(ctx context.Context, req SignedURLRequest) (SignedURLResponse, error) {
	var resp SignedURLResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/convai/conversation/get-signed-url", req, &resp); err != nil {
		return SignedURLResponse{}, err
	}
	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("elevenlabs error response",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
			zap.ByteString("body", respBody),
		)
		return fmt.Errorf("elevenlabs http error: status=%d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

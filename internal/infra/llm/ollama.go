// Package llm — Ollama HTTP adapter.
// OllamaProvider calls the local Ollama REST API using stdlib net/http.
// It is the no-credential local development provider.
// Endpoints used:
//   - POST /api/chat — non-streaming chat completion
//   - GET  /api/tags — health check (lists available models)
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaProvider implements Provider against a running Ollama instance.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates an OllamaProvider with a 30s default timeout.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ─── internal Ollama JSON types ──────────────────────────────────────────────

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Message    ollamaChatMessage `json:"message"`
	DoneReason string            `json:"done_reason"`
	Done       bool              `json:"done"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Generate performs a non-streaming chat via POST /api/chat. Ollama speaks
// the OpenAI-style three-role model, so the partitioned request is flattened
// back into one messages array.
func (p *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]ollamaChatMessage, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, ollamaChatMessage{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		msgs = append(msgs, ollamaChatMessage{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, ollamaChatMessage{Role: "user", Content: req.Input})

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
	})
	if err != nil {
		return nil, err
	}

	respBody, postErr := p.doPost(ctx, "/api/chat", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close()

	var ollamaResp ollamaChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&ollamaResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	return &GenerateResponse{
		Content:    ollamaResp.Message.Content,
		StopReason: ollamaResp.DoneReason,
	}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *OllamaProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "ollama",
		Version:   "v1",
		MaxTokens: 4096,
	}
}

// HealthCheck calls GET /api/tags — returns nil if Ollama is reachable.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	url := p.baseURL + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *OllamaProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	url := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama post %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("ollama post %s: status %d", path, resp.StatusCode)
	}
	return resp.Body, nil
}

// Package llm — OpenAI HTTP adapter.
// OpenAIProvider calls the chat completions REST API using stdlib net/http.
// Unlike Gemini, OpenAI takes the whole exchange as one messages array, so
// the partitioned request is flattened back: system first, then history with
// its role tokens unchanged, then the final user input.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIProvider implements Provider against the OpenAI REST API.
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAIProvider with a 30s default timeout.
// An empty apiKey is allowed: construction never fails, calls do.
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ─── internal OpenAI JSON types ──────────────────────────────────────────────

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

type openaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Generate performs a non-streaming completion via POST /v1/chat/completions.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openai: missing API key")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]openaiMessage, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, openaiMessage{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		msgs = append(msgs, openaiMessage{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, openaiMessage{Role: "user", Content: req.Input})

	body, err := json.Marshal(openaiChatRequest{Model: model, Messages: msgs})
	if err != nil {
		return nil, err
	}

	url := p.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp openaiErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("openai: status %d", resp.StatusCode)
	}

	var chatResp openaiChatResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&chatResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(chatResp.Choices) == 0 {
		return &GenerateResponse{Content: ""}, nil
	}
	return &GenerateResponse{
		Content:    chatResp.Choices[0].Message.Content,
		StopReason: chatResp.Choices[0].FinishReason,
	}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *OpenAIProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "openai",
		Version:   "v1",
		MaxTokens: 128000,
	}
}

// HealthCheck calls GET /v1/models — returns nil if the API is reachable.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("openai healthcheck: missing API key")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("openai healthcheck: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

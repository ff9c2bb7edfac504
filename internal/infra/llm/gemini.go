// Package llm — Gemini HTTP adapter.
// GeminiProvider calls the Generative Language REST API using stdlib net/http.
// Endpoints used:
//   - POST /v1beta/models/{model}:generateContent — non-streaming completion
//   - GET  /v1beta/models                         — health check
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
)

// geminiRoleModel is the role token Gemini expects for model-authored turns.
// History carries "assistant"; the mapping happens here, at the adapter
// boundary, so no other layer knows about the two-party role model.
const geminiRoleModel = "model"

// GeminiProvider implements Provider against the Gemini REST API.
type GeminiProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiProvider creates a GeminiProvider with a 30s default timeout.
// An empty apiKey is allowed: construction never fails, calls do.
func NewGeminiProvider(baseURL, apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ─── internal Gemini JSON types ──────────────────────────────────────────────

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiGenerateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Generate performs a non-streaming completion via :generateContent.
// The request's history turns are mapped to Gemini's two-party role model
// ("assistant" → "model", anything else → "user") and the system instruction
// rides in its own field, outside the contents array.
func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == "assistant" {
			role = geminiRoleModel
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: turn.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.Input}}})

	payload := geminiGenerateRequest{Contents: contents}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", model)
	respBody, postErr := p.doPost(ctx, path, body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close()

	var geminiResp geminiGenerateResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&geminiResp); decodeErr != nil {
		return nil, fmt.Errorf("decode generate response: %w", decodeErr)
	}

	if len(geminiResp.Candidates) == 0 {
		return &GenerateResponse{Content: ""}, nil
	}

	cand := geminiResp.Candidates[0]
	texts := make([]string, 0, len(cand.Content.Parts))
	for _, part := range cand.Content.Parts {
		texts = append(texts, part.Text)
	}
	return &GenerateResponse{
		Content:    strings.Join(texts, ""),
		StopReason: cand.FinishReason,
	}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *GeminiProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "gemini",
		Version:   "v1beta",
		MaxTokens: 1048576,
	}
}

// HealthCheck calls GET /v1beta/models — returns nil if the API is reachable.
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("gemini healthcheck: missing API key")
	}
	url := p.baseURL + "/v1beta/models?key=" + p.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("gemini healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a POST to baseURL+path and returns the response body.
// Non-2xx responses become errors carrying the API's own message when the
// body parses as a Gemini error payload.
// Caller is responsible for closing the returned ReadCloser.
func (p *GeminiProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	url := p.baseURL + path + "?key=" + p.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini post %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		if msg := decodeGeminiError(resp.Body); msg != "" {
			return nil, fmt.Errorf("gemini post %s: status %d: %s", path, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("gemini post %s: status %d", path, resp.StatusCode)
	}
	return resp.Body, nil
}

func decodeGeminiError(r io.Reader) string {
	var errResp geminiErrorResponse
	if err := json.NewDecoder(r).Decode(&errResp); err != nil {
		return ""
	}
	return errResp.Error.Message
}

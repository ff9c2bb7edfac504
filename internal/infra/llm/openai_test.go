// Unit tests for OpenAIProvider.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openaiReply(text string) openaiChatResponse {
	var resp openaiChatResponse
	resp.Choices = append(resp.Choices, struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	}{Message: openaiMessage{Role: "assistant", Content: text}, FinishReason: "stop"})
	return resp
}

func TestOpenAIProvider_Generate_FlattensRequest(t *testing.T) {
	t.Parallel()

	var got openaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.Error(w, "unexpected path", http.StatusNotFound)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			http.Error(w, "missing auth", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiReply("sure")) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-4.1-mini")
	resp, err := p.Generate(context.Background(), GenerateRequest{
		System: "be brief\nanswer in english",
		History: []Turn{
			{Role: "user", Content: "q1"},
			{Role: "assistant", Content: "a1"},
		},
		Input: "q2",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != "sure" {
		t.Errorf("expected reply 'sure', got %q", resp.Content)
	}

	want := []openaiMessage{
		{Role: "system", Content: "be brief\nanswer in english"},
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
	}
	if len(got.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got.Messages))
	}
	for i, m := range want {
		if got.Messages[i] != m {
			t.Errorf("message %d: expected %+v, got %+v", i, m, got.Messages[i])
		}
	}
	if got.Model != "gpt-4.1-mini" {
		t.Errorf("expected default model, got %q", got.Model)
	}
}

func TestOpenAIProvider_Generate_NoSystem_OmitsSystemMessage(t *testing.T) {
	t.Parallel()

	var got openaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiReply("ok")) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-4.1-mini")
	if _, err := p.Generate(context.Background(), GenerateRequest{Input: "hi"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("expected single user message, got %+v", got.Messages)
	}
}

func TestOpenAIProvider_Generate_MissingKey_FailsAtCallTime(t *testing.T) {
	t.Parallel()

	p := NewOpenAIProvider("http://localhost:0", "", "gpt-4.1-mini")
	_, err := p.Generate(context.Background(), GenerateRequest{Input: "hi"})
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
}

func TestOpenAIProvider_Generate_APIError_CarriesProviderMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-4.1-mini")
	_, err := p.Generate(context.Background(), GenerateRequest{Input: "hi"})
	if err == nil {
		t.Fatal("expected error for 429 response, got nil")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("expected provider message in error, got %v", err)
	}
}

func TestOpenAIProvider_Generate_NoChoices_ReturnsEmptyReply(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiChatResponse{}) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "test-key", "gpt-4.1-mini")
	resp, err := p.Generate(context.Background(), GenerateRequest{Input: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != "" {
		t.Errorf("expected empty reply, got %q", resp.Content)
	}
}

// Unit tests for Router.
// Uses stub Provider implementations — no HTTP needed.
package llm

import (
	"context"
	"testing"
)

// stubProvider is a minimal Provider stub for router testing.
type stubProvider struct{ id string }

func (s *stubProvider) Generate(_ context.Context, _ GenerateRequest) (*GenerateResponse, error) {
	return &GenerateResponse{Content: "stub"}, nil
}
func (s *stubProvider) ModelInfo() ModelMeta                { return ModelMeta{ID: s.id, Provider: "stub"} }
func (s *stubProvider) HealthCheck(_ context.Context) error { return nil }

func TestRouter_Route_ReturnsDefaultProvider(t *testing.T) {
	t.Parallel()

	gemini := &stubProvider{id: "gemini-2.0-flash"}
	r := NewRouter(map[string]Provider{"gemini": gemini}, "gemini")

	p, err := r.Route(context.Background())
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if p.ModelInfo().Provider != "stub" || p.ModelInfo().ID != "gemini-2.0-flash" {
		t.Errorf("unexpected provider returned: %v", p.ModelInfo())
	}
}

func TestRouter_Route_UnknownDefaultProvider_ReturnsError(t *testing.T) {
	t.Parallel()

	gemini := &stubProvider{id: "gemini-2.0-flash"}
	// defaultProvider key "openai" is not in the map — should return error.
	r := NewRouter(map[string]Provider{"gemini": gemini}, "openai")

	_, err := r.Route(context.Background())
	if err == nil {
		t.Fatal("expected error for unknown default provider, got nil")
	}
}

func TestRouter_Register_AddsProvider(t *testing.T) {
	t.Parallel()

	r := NewRouter(map[string]Provider{}, "ollama")
	r.Register("ollama", &stubProvider{id: "llama3.2:3b"})

	p, err := r.Route(context.Background())
	if err != nil {
		t.Fatalf("Route failed after Register: %v", err)
	}
	if p.ModelInfo().ID != "llama3.2:3b" {
		t.Errorf("unexpected provider: %v", p.ModelInfo())
	}
}

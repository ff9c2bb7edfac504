// Package llm — Provider interface.
// Adapters (Gemini, OpenAI, Ollama) implement this interface so the gateway
// is never coupled to a specific LLM vendor.
package llm

import "context"

// Provider is the model-agnostic interface for LLM operations.
// A provider missing its credential must still construct; the failure
// surfaces from Generate at call time.
type Provider interface {
	// Generate performs a single non-streaming completion.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}

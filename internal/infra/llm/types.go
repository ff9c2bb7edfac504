// Package llm defines the model-agnostic LLM provider abstraction.
// All types here are shared between the provider interface and adapters.
package llm

// Turn represents a prior conversational turn (role + content).
// Role is "user" or "assistant"; adapters map "assistant" to whatever token
// their provider uses for model-authored turns.
type Turn struct {
	Role    string
	Content string
}

// GenerateRequest is the partitioned input for a single completion: an
// optional system instruction, the ordered prior history, and the final user
// input. Adapters reconstitute this shape per provider.
type GenerateRequest struct {
	// Model overrides the provider default when non-empty.
	Model   string
	System  string
	History []Turn
	Input   string
}

// GenerateResponse is the output of a completion call.
type GenerateResponse struct {
	Content    string // The reply text; empty (never absent) when the model returned none.
	StopReason string // Provider-reported finish reason, "" when not reported.
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "gemini-2.0-flash", "gpt-4.1-mini"
	Provider  string // e.g. "gemini", "openai", "ollama"
	Version   string // e.g. "v1beta"
	MaxTokens int    // Maximum context window size.
}

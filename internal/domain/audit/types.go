// Package audit keeps an append-only record of gateway chat calls. Records
// carry no conversation content or context — the gateway stays stateless
// between calls.
package audit

import "time"

// Outcome represents the result of an audited call.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// CallRecord is a single gateway call entry.
// This is immutable — once created, it is never modified.
type CallRecord struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	Outcome      Outcome   `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	LatencyMS    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Package chat implements the gateway service: it validates an inbound
// message sequence, partitions it into system instruction / history / final
// user turn, and invokes the configured LLM provider for a single reply.
// The service is stateless between calls — every call carries the full
// conversation context the caller wants considered.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/matiasleandrokruk/charla/internal/domain/audit"
	"github.com/matiasleandrokruk/charla/internal/infra/llm"
)

// Validation errors, surfaced by the HTTP layer as 400 responses.
var (
	ErrEmptyMessages = errors.New("messages must be a non-empty array")
	ErrLastNotUser   = errors.New("last message must be a user message")
)

// Message is the gateway's inbound view of a turn. Roles are
// "system" | "user" | "assistant"; anything else in history is treated as a
// user turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON decodes a wire message leniently: a missing or non-string
// content field decodes as "", which partitioning later drops. One malformed
// upstream entry must never fail the whole request.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Content = ""
	if len(raw.Content) > 0 {
		var s string
		if err := json.Unmarshal(raw.Content, &s); err == nil {
			m.Content = s
		}
	}
	return nil
}

// ProviderSource yields the LLM provider for a request. *llm.Router
// satisfies it.
type ProviderSource interface {
	Route(ctx context.Context) (llm.Provider, error)
}

// CallRecorder persists an audit record of a gateway call. Recording is
// best-effort: a recorder failure never fails the chat call.
type CallRecorder interface {
	Record(ctx context.Context, rec audit.CallRecord) error
}

// Service is the gateway service.
type Service struct {
	providers ProviderSource
	recorder  CallRecorder
}

// NewService creates a Service. recorder may be nil when no audit log is
// configured.
func NewService(providers ProviderSource, recorder CallRecorder) *Service {
	return &Service{providers: providers, recorder: recorder}
}

// Reply runs one gateway call: validate, partition, generate.
// The returned reply text defaults to "" when the provider produced none;
// it is never accompanied by partial output on error.
func (s *Service) Reply(ctx context.Context, msgs []Message) (string, error) {
	if len(msgs) == 0 {
		return "", ErrEmptyMessages
	}
	last := msgs[len(msgs)-1]
	if last.Role != "user" {
		return "", ErrLastNotUser
	}

	system, history := partition(msgs[:len(msgs)-1])

	provider, err := s.providers.Route(ctx)
	if err != nil {
		return "", err
	}

	started := time.Now()
	resp, err := provider.Generate(ctx, llm.GenerateRequest{
		System:  system,
		History: history,
		Input:   last.Content,
	})
	s.record(ctx, provider, len(msgs), started, err)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// partition splits the prior entries by role: system contents are
// newline-joined into one instruction, everything else becomes ordered
// history. Entries whose content is empty (including entries whose wire
// content was missing or non-text, see Message.UnmarshalJSON) are dropped
// silently — malformed upstream input is normalized away, never a hard error.
func partition(prior []Message) (string, []llm.Turn) {
	system := ""
	history := make([]llm.Turn, 0, len(prior))
	for _, msg := range prior {
		if msg.Content == "" {
			continue
		}
		if msg.Role == "system" {
			if system != "" {
				system += "\n"
			}
			system += msg.Content
			continue
		}

		role := "user"
		if msg.Role == "assistant" {
			role = "assistant"
		}
		history = append(history, llm.Turn{Role: role, Content: msg.Content})
	}
	return system, history
}

func (s *Service) record(ctx context.Context, provider llm.Provider, messageCount int, started time.Time, callErr error) {
	if s.recorder == nil {
		return
	}
	meta := provider.ModelInfo()
	rec := audit.CallRecord{
		Provider:     meta.Provider,
		Model:        meta.ID,
		MessageCount: messageCount,
		Outcome:      audit.OutcomeSuccess,
		LatencyMS:    time.Since(started).Milliseconds(),
	}
	if callErr != nil {
		rec.Outcome = audit.OutcomeError
		rec.Error = callErr.Error()
	}
	_ = s.recorder.Record(ctx, rec)
}

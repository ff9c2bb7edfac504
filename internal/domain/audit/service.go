package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/matiasleandrokruk/charla/pkg/uuid"
)

// Service provides audit logging for gateway calls.
// All operations are append-only; no updates or deletes are supported.
type Service struct {
	db *sql.DB
}

// NewService creates a new audit service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record inserts a call record. A zero ID and CreatedAt are filled in here so
// callers only describe the call itself.
func (s *Service) Record(ctx context.Context, rec CallRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewV7().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_calls (id, provider, model, message_count, outcome, error, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Provider, rec.Model, rec.MessageCount,
		string(rec.Outcome), rec.Error, rec.LatencyMS,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("audit: insert call record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, model, message_count, outcome, error, latency_ms, created_at
		FROM chat_calls ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query call records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []CallRecord
	for rows.Next() {
		var rec CallRecord
		var outcome, createdAt string
		if err := rows.Scan(&rec.ID, &rec.Provider, &rec.Model, &rec.MessageCount,
			&outcome, &rec.Error, &rec.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("audit: scan call record: %w", err)
		}
		rec.Outcome = Outcome(outcome)
		if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"p2000-receiver/internal/models"

	"go.uber.org/zap"
)

const journalSchema = `
	CREATE TABLE IF NOT EXISTS p2000_dispatch_log (
		id          BIGSERIAL PRIMARY KEY,
		message_id  UUID        NOT NULL,
		sensor      TEXT        NOT NULL,
		decision    TEXT        NOT NULL,
		reason      TEXT        NOT NULL DEFAULT '',
		body        TEXT        NOT NULL,
		region      TEXT        NOT NULL DEFAULT '',
		map_url     TEXT        NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// JournalRepository writes post/skip decisions to Postgres.
// The table is an audit trail and is never read back by the pipeline.
type JournalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewJournalRepository creates a JournalRepository.
func NewJournalRepository(db *sql.DB, logger *zap.Logger) *JournalRepository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the journal table when missing.
func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("failed to create dispatch journal table: %w", err)
	}
	return nil
}

// Record inserts one decision.
func (r *JournalRepository) Record(ctx context.Context, entry models.JournalEntry) error {
	if entry.MessageID == "" {
		return fmt.Errorf("message_id is required")
	}
	if entry.Sensor == "" {
		return fmt.Errorf("sensor is required")
	}

	query := `
		INSERT INTO p2000_dispatch_log (
			message_id,
			sensor,
			decision,
			reason,
			body,
			region,
			map_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		entry.MessageID,
		entry.Sensor,
		entry.Decision,
		entry.Reason,
		entry.Body,
		entry.Region,
		entry.MapURL,
	)
	if err != nil {
		return fmt.Errorf("failed to record dispatch decision: %w", err)
	}

	return nil
}

// CountBySensor returns how many decisions of the given kind were recorded
// for a sensor.
func (r *JournalRepository) CountBySensor(ctx context.Context, sensor, decision string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM p2000_dispatch_log WHERE sensor = $1 AND decision = $2`,
		sensor, decision,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count dispatch decisions: %w", err)
	}
	return total, nil
}

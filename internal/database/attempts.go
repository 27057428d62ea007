package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/outreach-bot/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS outreach_attempt (
		id          UUID PRIMARY KEY,
		run_id      UUID NOT NULL,
		mode        TEXT NOT NULL,
		page        INTEGER NOT NULL,
		profile_key TEXT NOT NULL,
		sent        BOOLEAN NOT NULL,
		reason      TEXT,
		error       TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_outreach_attempt_profile_sent
		ON outreach_attempt (profile_key) WHERE sent;
	CREATE INDEX IF NOT EXISTS idx_outreach_attempt_run
		ON outreach_attempt (run_id, created_at);`

// AttemptRepository is the outreach journal: one row per message attempt.
type AttemptRepository struct {
	db *DB
}

func NewAttemptRepository(db *DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create attempt schema: %w", err)
	}
	return nil
}

func (r *AttemptRepository) Record(ctx context.Context, a *models.Attempt) error {
	if errs := a.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid attempt: %s", strings.Join(errs, ", "))
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	query := `
		INSERT INTO outreach_attempt (
			id, run_id, mode, page, profile_key, sent, reason, error, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9
		)`

	_, err := r.db.Exec(ctx, query,
		a.ID, a.RunID, a.Mode, a.Page, a.ProfileKey, a.Sent, a.Reason, a.Error, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// Contacted reports whether any earlier attempt messaged the profile.
func (r *AttemptRepository) Contacted(ctx context.Context, profileKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM outreach_attempt WHERE profile_key = $1 AND sent)`,
		profileKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}
	return exists, nil
}

// ListByRun returns a run's attempts, oldest first.
func (r *AttemptRepository) ListByRun(ctx context.Context, runID uuid.UUID, limit int) ([]*models.Attempt, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, run_id, mode, page, profile_key, sent,
			COALESCE(reason, ''), COALESCE(error, ''), created_at
		FROM outreach_attempt
		WHERE run_id = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Attempt, error) {
		var a models.Attempt
		err := row.Scan(&a.ID, &a.RunID, &a.Mode, &a.Page, &a.ProfileKey, &a.Sent,
			&a.Reason, &a.Error, &a.CreatedAt)
		return &a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan attempts: %w", err)
	}
	return attempts, nil
}

// Totals counts sent and skipped attempts across all runs.
func (r *AttemptRepository) Totals(ctx context.Context) (sent, skipped int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE sent),
			COUNT(*) FILTER (WHERE NOT sent)
		FROM outreach_attempt`,
	).Scan(&sent, &skipped)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return sent, skipped, nil
}

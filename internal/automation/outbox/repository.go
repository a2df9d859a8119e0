// Package outbox persists automation trigger payloads durably. Rows are
// written in the same transaction as the score update that produced them,
// then claimed and delivered by the scheduler's dispatcher.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusDelivering Status = "delivering"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// maxAttempts caps delivery retries before a record is parked as failed.
const maxAttempts = 8

const errRepoNotConfigured = "automation outbox repository not configured"

type Record struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Kind           string
	Payload        json.RawMessage
	RunAt          time.Time
	Status         Status
	Attempts       int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ClaimDue atomically moves due pending records to delivering and returns
// them. SKIP LOCKED keeps concurrent dispatchers from double-claiming.
func (r *Repository) ClaimDue(ctx context.Context, limit int) ([]Record, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New(errRepoNotConfigured)
	}
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH cte AS (
		SELECT id
		FROM automation_outbox
		WHERE status = 'pending' AND run_at <= now()
		ORDER BY run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE automation_outbox o
	SET status = 'delivering', attempts = o.attempts + 1, updated_at = now()
	FROM cte
	WHERE o.id = cte.id
	RETURNING o.id, o.organization_id, o.lead_id, o.kind, o.payload, o.run_at, o.status, o.attempts`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.LeadID, &rec.Kind, &rec.Payload, &rec.RunAt, &status, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkSucceeded finalizes a delivered record.
func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE automation_outbox
		 SET status = 'succeeded', last_error = NULL, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	return err
}

// Reschedule returns a record to pending with exponential backoff, or parks
// it as failed once maxAttempts is reached.
func (r *Repository) Reschedule(ctx context.Context, rec Record, deliveryErr error) error {
	if r == nil || r.pool == nil {
		return errors.New(errRepoNotConfigured)
	}

	msg := deliveryErr.Error()
	if rec.Attempts >= maxAttempts {
		_, err := r.pool.Exec(ctx,
			`UPDATE automation_outbox
			 SET status = 'failed', last_error = $2, updated_at = now()
			 WHERE id = $1`,
			rec.ID, msg,
		)
		return err
	}

	backoff := time.Duration(rec.Attempts*rec.Attempts) * 15 * time.Second
	_, err := r.pool.Exec(ctx,
		`UPDATE automation_outbox
		 SET status = 'pending', run_at = now() + $2, last_error = $3, updated_at = now()
		 WHERE id = $1`,
		rec.ID, backoff, msg,
	)
	return err
}

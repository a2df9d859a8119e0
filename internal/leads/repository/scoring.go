package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gymflow_backend/internal/automation"
	"gymflow_backend/platform/apperr"
)

func (r *Postgres) GetScoringFactors(ctx context.Context, organizationID, leadID uuid.UUID) (ScoringFactors, error) {
	const query = `
		SELECT lead_id, organization_id, source_quality, engagement, behavioral, communication,
		       profile_completeness, time_decay, ai_analysis, total_score, version, updated_at
		FROM lead_scoring_factors
		WHERE organization_id = $1 AND lead_id = $2`

	var f ScoringFactors
	err := r.pool.QueryRow(ctx, query, organizationID, leadID).Scan(
		&f.LeadID,
		&f.OrganizationID,
		&f.SourceQuality,
		&f.Engagement,
		&f.Behavioral,
		&f.Communication,
		&f.ProfileCompleteness,
		&f.TimeDecay,
		&f.AIAnalysis,
		&f.TotalScore,
		&f.Version,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScoringFactors{}, apperr.NotFound("scoring factors not found")
		}
		return ScoringFactors{}, fmt.Errorf("get scoring factors: %w", err)
	}
	return f, nil
}

// PersistScore applies one computed score in a single transaction: it
// serializes concurrent re-scores of the same lead with an advisory lock,
// re-reads the previous score under that lock, rewrites the factor snapshot,
// and, only when the total actually moved, updates the lead, appends a
// history entry and enqueues an automation trigger in the outbox.
func (r *Postgres) PersistScore(ctx context.Context, params PersistScoreParams) (PersistScoreResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return PersistScoreResult{}, fmt.Errorf("begin persist score: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, params.LeadID); err != nil {
		return PersistScoreResult{}, fmt.Errorf("acquire score lock: %w", err)
	}

	var previous int
	err = tx.QueryRow(ctx,
		`SELECT lead_score FROM leads WHERE id = $1 AND organization_id = $2`,
		params.LeadID, params.OrganizationID,
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PersistScoreResult{}, apperr.NotFound("lead not found")
		}
		return PersistScoreResult{}, fmt.Errorf("read previous score: %w", err)
	}

	next := params.Factors.TotalScore

	const upsertFactors = `
		INSERT INTO lead_scoring_factors (
			lead_id, organization_id, source_quality, engagement, behavioral, communication,
			profile_completeness, time_decay, ai_analysis, total_score, version, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (lead_id) DO UPDATE SET
			source_quality = EXCLUDED.source_quality,
			engagement = EXCLUDED.engagement,
			behavioral = EXCLUDED.behavioral,
			communication = EXCLUDED.communication,
			profile_completeness = EXCLUDED.profile_completeness,
			time_decay = EXCLUDED.time_decay,
			ai_analysis = EXCLUDED.ai_analysis,
			total_score = EXCLUDED.total_score,
			version = EXCLUDED.version,
			updated_at = now()`

	f := params.Factors
	if _, err := tx.Exec(ctx, upsertFactors,
		params.LeadID, params.OrganizationID,
		f.SourceQuality, f.Engagement, f.Behavioral, f.Communication,
		f.ProfileCompleteness, f.TimeDecay, f.AIAnalysis,
		next, f.Version,
	); err != nil {
		return PersistScoreResult{}, fmt.Errorf("upsert scoring factors: %w", err)
	}

	result := PersistScoreResult{PreviousScore: previous, NewScore: next, Changed: previous != next}
	if !result.Changed {
		if err := tx.Commit(ctx); err != nil {
			return PersistScoreResult{}, fmt.Errorf("commit persist score: %w", err)
		}
		return result, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE leads SET lead_score = $1, updated_at = now() WHERE id = $2 AND organization_id = $3`,
		next, params.LeadID, params.OrganizationID,
	); err != nil {
		return PersistScoreResult{}, fmt.Errorf("update lead score: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO lead_score_history (id, lead_id, organization_id, previous_score, new_score, score_change, triggered_by, change_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), params.LeadID, params.OrganizationID,
		previous, next, next-previous, params.TriggeredBy, params.ChangeReason,
	); err != nil {
		return PersistScoreResult{}, fmt.Errorf("insert score history: %w", err)
	}

	var reason string
	if params.ChangeReason != nil {
		reason = *params.ChangeReason
	}
	payload, err := json.Marshal(automation.TriggerPayload{
		LeadID:             params.LeadID,
		PreviousScore:      previous,
		NewScore:           next,
		ChangeReason:       reason,
		TriggerAutomations: true,
	})
	if err != nil {
		return PersistScoreResult{}, fmt.Errorf("marshal trigger payload: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO automation_outbox (id, organization_id, lead_id, kind, payload, run_at, status, attempts)
		 VALUES ($1, $2, $3, $4, $5, now(), 'pending', 0)`,
		uuid.New(), params.OrganizationID, params.LeadID, automation.TriggerKind, payload,
	); err != nil {
		return PersistScoreResult{}, fmt.Errorf("enqueue automation trigger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return PersistScoreResult{}, fmt.Errorf("commit persist score: %w", err)
	}
	return result, nil
}

func (r *Postgres) ListStaleScoredLeads(ctx context.Context, scoredBefore time.Time, limit int) ([]LeadRef, error) {
	const query = `
		SELECT lead_id, organization_id
		FROM lead_scoring_factors
		WHERE updated_at < $1
		ORDER BY updated_at
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, scoredBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale scored leads: %w", err)
	}
	defer rows.Close()

	var refs []LeadRef
	for rows.Next() {
		var ref LeadRef
		if err := rows.Scan(&ref.LeadID, &ref.OrganizationID); err != nil {
			return nil, fmt.Errorf("scan stale lead: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale leads: %w", err)
	}
	return refs, nil
}

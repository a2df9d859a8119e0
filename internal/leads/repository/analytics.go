package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (r *Postgres) AverageLeadScore(ctx context.Context, organizationID uuid.UUID) (float64, int, error) {
	const query = `
		SELECT COALESCE(AVG(lead_score), 0), COUNT(*)
		FROM leads
		WHERE organization_id = $1`

	var avg float64
	var count int
	if err := r.pool.QueryRow(ctx, query, organizationID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("average lead score: %w", err)
	}
	return avg, count, nil
}

func (r *Postgres) CountLeadsByBand(ctx context.Context, organizationID uuid.UUID) (ScoreDistribution, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE lead_score >= 80),
			COUNT(*) FILTER (WHERE lead_score >= 60 AND lead_score < 80),
			COUNT(*) FILTER (WHERE lead_score >= 40 AND lead_score < 60),
			COUNT(*) FILTER (WHERE lead_score < 40)
		FROM leads
		WHERE organization_id = $1`

	var dist ScoreDistribution
	if err := r.pool.QueryRow(ctx, query, organizationID).Scan(&dist.Hot, &dist.Warm, &dist.Lukewarm, &dist.Cold); err != nil {
		return ScoreDistribution{}, fmt.Errorf("count leads by band: %w", err)
	}
	return dist, nil
}

func (r *Postgres) TopActivityTypes(ctx context.Context, organizationID uuid.UUID, since time.Time, limit int) ([]ActivityTypeCount, error) {
	const query = `
		SELECT activity_type, COUNT(*)
		FROM lead_activities
		WHERE organization_id = $1 AND created_at >= $2
		GROUP BY activity_type
		ORDER BY COUNT(*) DESC, activity_type
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, organizationID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top activity types: %w", err)
	}
	defer rows.Close()

	var counts []ActivityTypeCount
	for rows.Next() {
		var c ActivityTypeCount
		if err := rows.Scan(&c.ActivityType, &c.Count); err != nil {
			return nil, fmt.Errorf("scan activity type count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity type counts: %w", err)
	}
	return counts, nil
}

func (r *Postgres) RecentScoreHistory(ctx context.Context, organizationID uuid.UUID, since time.Time, limit int) ([]ScoreHistoryEntry, error) {
	const query = `
		SELECT id, lead_id, organization_id, previous_score, new_score, score_change, triggered_by, change_reason, created_at
		FROM lead_score_history
		WHERE organization_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, organizationID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent score history: %w", err)
	}
	defer rows.Close()

	var entries []ScoreHistoryEntry
	for rows.Next() {
		var e ScoreHistoryEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.OrganizationID, &e.PreviousScore, &e.NewScore, &e.ScoreChange, &e.TriggeredBy, &e.ChangeReason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score history: %w", err)
	}
	return entries, nil
}

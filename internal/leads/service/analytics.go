package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/scoring"
)

const (
	analyticsWindow      = 30 * 24 * time.Hour
	topActivityTypeLimit = 10
	recentHistoryLimit   = 100
)

// Analytics is the scoring dashboard payload for one organization.
type Analytics struct {
	AverageScore     float64                        `json:"averageScore"`
	TotalLeads       int                            `json:"totalLeads"`
	Distribution     repository.ScoreDistribution   `json:"distribution"`
	TopActivityTypes []repository.ActivityTypeCount `json:"topActivityTypes"`
	RecentChanges    []repository.ScoreHistoryEntry `json:"recentChanges"`
}

// GetAnalytics aggregates score statistics over the trailing 30 days.
func (s *Service) GetAnalytics(ctx context.Context, organizationID uuid.UUID) (Analytics, error) {
	avg, total, err := s.repo.AverageLeadScore(ctx, organizationID)
	if err != nil {
		return Analytics{}, err
	}

	dist, err := s.repo.CountLeadsByBand(ctx, organizationID)
	if err != nil {
		return Analytics{}, err
	}

	since := time.Now().UTC().Add(-analyticsWindow)

	topTypes, err := s.repo.TopActivityTypes(ctx, organizationID, since, topActivityTypeLimit)
	if err != nil {
		return Analytics{}, err
	}

	recent, err := s.repo.RecentScoreHistory(ctx, organizationID, since, recentHistoryLimit)
	if err != nil {
		return Analytics{}, err
	}

	return Analytics{
		AverageScore:     math.Round(avg*100) / 100,
		TotalLeads:       total,
		Distribution:     dist,
		TopActivityTypes: topTypes,
		RecentChanges:    recent,
	}, nil
}

// LeadsByTemperature lists an organization's leads whose current score falls
// in the named temperature band, hottest first.
func (s *Service) LeadsByTemperature(ctx context.Context, organizationID uuid.UUID, raw string) ([]repository.Lead, error) {
	temperature, err := scoring.ParseTemperature(raw)
	if err != nil {
		return nil, err
	}
	min, max := temperature.Range()
	return s.repo.ListLeadsByScoreRange(ctx, organizationID, min, max)
}

// RefreshStaleScores re-scores leads whose factor snapshot has not been
// recomputed since the cutoff, so time decay keeps biting without activity.
// Returns how many leads were processed.
func (s *Service) RefreshStaleScores(ctx context.Context, staleBefore time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	refs, err := s.repo.ListStaleScoredLeads(ctx, staleBefore, batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		reason := "Scheduled decay refresh"
		if _, err := s.UpdateLeadScore(ctx, ref.OrganizationID, ref.LeadID, repository.TriggeredByAutomation, &reason); err != nil {
			s.log.Warn("decay refresh failed for lead", "leadId", ref.LeadID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

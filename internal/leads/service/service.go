// Package service implements lead scoring use cases on top of the repository:
// score calculation and persistence, activity ingestion, per-tenant
// configuration and analytics.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gymflow_backend/internal/events"
	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/scoring"
	"gymflow_backend/platform/apperr"
	"gymflow_backend/platform/logger"
)

// Service orchestrates lead scoring for one organization at a time.
type Service struct {
	repo     repository.Repository
	log      *logger.Logger
	bus      events.Bus
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService wires the scoring service. cache may be nil; configuration reads
// then always hit the database.
func NewService(repo repository.Repository, log *logger.Logger, bus events.Bus, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:     repo,
		log:      log,
		bus:      bus,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// ScoreUpdate reports one persisted score transition.
type ScoreUpdate struct {
	LeadID        uuid.UUID         `json:"leadId"`
	PreviousScore int               `json:"previousScore"`
	NewScore      int               `json:"newScore"`
	ScoreChange   int               `json:"scoreChange"`
	Changed       bool              `json:"changed"`
	Temperature   string            `json:"temperature"`
	Breakdown     scoring.Breakdown `json:"breakdown"`
}

// CalculateScore computes the full factor breakdown for a lead without
// persisting anything.
func (s *Service) CalculateScore(ctx context.Context, organizationID, leadID uuid.UUID) (scoring.Breakdown, error) {
	input, err := s.buildScoringInput(ctx, organizationID, leadID)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	return scoring.Compute(input), nil
}

// UpdateLeadScore recomputes a lead's score and persists it: factor snapshot,
// lead row, history entry and automation trigger commit atomically. A
// no-change recompute refreshes the snapshot but writes no history.
func (s *Service) UpdateLeadScore(ctx context.Context, organizationID, leadID uuid.UUID, triggeredBy string, changeReason *string) (ScoreUpdate, error) {
	input, err := s.buildScoringInput(ctx, organizationID, leadID)
	if err != nil {
		return ScoreUpdate{}, err
	}
	breakdown := scoring.Compute(input)

	result, err := s.repo.PersistScore(ctx, repository.PersistScoreParams{
		OrganizationID: organizationID,
		LeadID:         leadID,
		Factors: repository.ScoringFactors{
			LeadID:              leadID,
			OrganizationID:      organizationID,
			SourceQuality:       breakdown.SourceQuality,
			Engagement:          breakdown.Engagement,
			Behavioral:          breakdown.Behavioral,
			Communication:       breakdown.Communication,
			ProfileCompleteness: breakdown.ProfileCompleteness,
			TimeDecay:           breakdown.TimeDecay,
			AIAnalysis:          breakdown.AIAnalysis,
			TotalScore:          breakdown.Total,
			Version:             breakdown.Version,
		},
		TriggeredBy:  triggeredBy,
		ChangeReason: changeReason,
	})
	if err != nil {
		return ScoreUpdate{}, err
	}

	update := ScoreUpdate{
		LeadID:        leadID,
		PreviousScore: result.PreviousScore,
		NewScore:      result.NewScore,
		ScoreChange:   result.NewScore - result.PreviousScore,
		Changed:       result.Changed,
		Temperature:   string(scoring.TemperatureFor(result.NewScore)),
		Breakdown:     breakdown,
	}

	if result.Changed {
		s.log.ScoreChange(leadID.String(), result.PreviousScore, result.NewScore, triggeredBy)

		var reason string
		if changeReason != nil {
			reason = *changeReason
		}
		s.bus.Publish(ctx, events.LeadScoreChanged{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         leadID,
			OrganizationID: organizationID,
			PreviousScore:  result.PreviousScore,
			NewScore:       result.NewScore,
			TriggeredBy:    triggeredBy,
			ChangeReason:   reason,
		})
	}

	return update, nil
}

// BulkResult summarizes a bulk re-score run. Individual failures do not abort
// the run.
type BulkResult struct {
	Updated   int              `json:"updated"`
	Failed    int              `json:"failed"`
	Succeeded []uuid.UUID      `json:"succeeded"`
	Errors    []BulkScoreError `json:"errors,omitempty"`
}

// BulkScoreError pairs a lead with the error that stopped its re-score.
type BulkScoreError struct {
	LeadID uuid.UUID `json:"leadId"`
	Error  string    `json:"error"`
}

// BulkUpdateScores re-scores the given leads, or every lead in the
// organization when leadIDs is empty. History rows record triggeredBy as the
// cause; an unknown value is rejected before any lead is touched.
func (s *Service) BulkUpdateScores(ctx context.Context, organizationID uuid.UUID, leadIDs []uuid.UUID, triggeredBy string) (BulkResult, error) {
	if !repository.ValidTriggeredBy(triggeredBy) {
		return BulkResult{}, apperr.BadRequest("unknown triggeredBy value: " + triggeredBy)
	}

	if len(leadIDs) == 0 {
		all, err := s.repo.ListLeadIDs(ctx, organizationID)
		if err != nil {
			return BulkResult{}, err
		}
		leadIDs = all
	}

	result := BulkResult{Succeeded: make([]uuid.UUID, 0, len(leadIDs))}
	for _, leadID := range leadIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.UpdateLeadScore(ctx, organizationID, leadID, triggeredBy, nil); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkScoreError{LeadID: leadID, Error: err.Error()})
			continue
		}
		result.Updated++
		result.Succeeded = append(result.Succeeded, leadID)
	}
	return result, nil
}

// buildScoringInput loads everything the calculators read. The AI analysis
// score is carried over from the previous factor snapshot; a lead that was
// never scored starts at zero.
func (s *Service) buildScoringInput(ctx context.Context, organizationID, leadID uuid.UUID) (scoring.Input, error) {
	lead, err := s.repo.GetLead(ctx, organizationID, leadID)
	if err != nil {
		return scoring.Input{}, err
	}

	activities, err := s.repo.ListLeadActivities(ctx, organizationID, leadID)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("load activities: %w", err)
	}

	interactions, err := s.repo.ListLeadInteractions(ctx, organizationID, leadID)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("load interactions: %w", err)
	}

	aiScore := 0.0
	factors, err := s.repo.GetScoringFactors(ctx, organizationID, leadID)
	switch {
	case err == nil:
		aiScore = factors.AIAnalysis
	case isNotFound(err):
		// first score for this lead
	default:
		return scoring.Input{}, fmt.Errorf("load scoring factors: %w", err)
	}

	cfg, err := s.GetConfiguration(ctx, organizationID)
	if err != nil {
		return scoring.Input{}, fmt.Errorf("load scoring configuration: %w", err)
	}

	return scoring.Input{
		Lead:         lead,
		Activities:   activities,
		Interactions: interactions,
		AIScore:      aiScore,
		Config:       cfg,
		Now:          time.Now().UTC(),
	}, nil
}

func isNotFound(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound
}


package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gymflow_backend/internal/events"
	"gymflow_backend/internal/leads/repository"
)

// ActivityInput is one activity submitted for ingestion.
//
// Value nil means the tenant's activityWeights table decides: a known type
// gets its configured weight, an unknown type gets 1. An explicit Value
// always wins. Callers that want the flat default of 1 for every type must
// send it explicitly.
type ActivityInput struct {
	LeadID       uuid.UUID
	ActivityType string
	Value        *float64
	Metadata     map[string]any
}

// ActivityResult reports one ingested activity and the score update it caused.
type ActivityResult struct {
	Activity    repository.LeadActivity `json:"activity"`
	ScoreUpdate ScoreUpdate             `json:"scoreUpdate"`
}

// RecordActivity ingests one activity and immediately re-scores the lead.
func (s *Service) RecordActivity(ctx context.Context, organizationID uuid.UUID, input ActivityInput) (ActivityResult, error) {
	// validate the lead exists before writing anything
	if _, err := s.repo.GetLead(ctx, organizationID, input.LeadID); err != nil {
		return ActivityResult{}, err
	}

	value := input.Value
	if value == nil {
		cfg, err := s.GetConfiguration(ctx, organizationID)
		if err != nil {
			return ActivityResult{}, fmt.Errorf("resolve activity weight: %w", err)
		}
		w := cfg.ActivityWeight(input.ActivityType)
		value = &w
	}

	activity, err := s.repo.InsertActivity(ctx, repository.NewActivity{
		LeadID:         input.LeadID,
		OrganizationID: organizationID,
		ActivityType:   input.ActivityType,
		ActivityValue:  value,
		Metadata:       input.Metadata,
	})
	if err != nil {
		return ActivityResult{}, err
	}

	s.bus.Publish(ctx, events.LeadActivityRecorded{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         input.LeadID,
		OrganizationID: organizationID,
		ActivityType:   activity.ActivityType,
		ActivityValue:  activity.ActivityValue,
	})

	reason := "New activity: " + input.ActivityType
	update, err := s.UpdateLeadScore(ctx, organizationID, input.LeadID, repository.TriggeredByActivity, &reason)
	if err != nil {
		return ActivityResult{}, err
	}

	return ActivityResult{Activity: activity, ScoreUpdate: update}, nil
}

// BatchActivityResult summarizes a batch ingest: how many activities landed
// and how each affected lead re-scored. A lead appearing multiple times in
// the batch is re-scored once.
type BatchActivityResult struct {
	Recorded      int              `json:"recorded"`
	LeadsRescored int              `json:"leadsRescored"`
	Updates       []ScoreUpdate    `json:"updates"`
	Errors        []BulkScoreError `json:"errors,omitempty"`
}

// RecordActivities ingests a batch of activities in one transaction, then
// re-scores each distinct lead once. Re-score failures are partial; the
// activities stay recorded.
func (s *Service) RecordActivities(ctx context.Context, organizationID uuid.UUID, inputs []ActivityInput) (BatchActivityResult, error) {
	if len(inputs) == 0 {
		return BatchActivityResult{}, nil
	}

	cfg, err := s.GetConfiguration(ctx, organizationID)
	if err != nil {
		return BatchActivityResult{}, fmt.Errorf("resolve activity weights: %w", err)
	}

	rows := make([]repository.NewActivity, 0, len(inputs))
	for _, input := range inputs {
		value := input.Value
		if value == nil {
			w := cfg.ActivityWeight(input.ActivityType)
			value = &w
		}
		rows = append(rows, repository.NewActivity{
			LeadID:         input.LeadID,
			OrganizationID: organizationID,
			ActivityType:   input.ActivityType,
			ActivityValue:  value,
			Metadata:       input.Metadata,
		})
	}

	recorded, err := s.repo.InsertActivities(ctx, rows)
	if err != nil {
		return BatchActivityResult{}, err
	}

	result := BatchActivityResult{Recorded: recorded}
	for _, leadID := range distinctLeadIDs(inputs) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		reason := "Batch activity update"
		update, err := s.UpdateLeadScore(ctx, organizationID, leadID, repository.TriggeredByBatchActivity, &reason)
		if err != nil {
			result.Errors = append(result.Errors, BulkScoreError{LeadID: leadID, Error: err.Error()})
			continue
		}
		result.LeadsRescored++
		result.Updates = append(result.Updates, update)
	}
	return result, nil
}

// distinctLeadIDs returns each lead once, preserving first-seen order.
func distinctLeadIDs(inputs []ActivityInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	var ids []uuid.UUID
	for _, input := range inputs {
		if _, ok := seen[input.LeadID]; ok {
			continue
		}
		seen[input.LeadID] = struct{}{}
		ids = append(ids, input.LeadID)
	}
	return ids
}

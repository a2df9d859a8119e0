// Package transport defines request and response shapes for the lead scoring
// HTTP API.
package transport

import (
	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/scoring"
	"gymflow_backend/internal/leads/service"
	"gymflow_backend/platform/phone"
)

// RecalculateScoreRequest optionally documents why a manual re-score happened.
type RecalculateScoreRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// RecordActivityRequest ingests one lead activity. Value overrides the
// tenant's default weight for the activity type when present.
type RecordActivityRequest struct {
	LeadID       string         `json:"leadId" binding:"required,uuid"`
	ActivityType string         `json:"activityType" binding:"required,min=1,max=100"`
	Value        *float64       `json:"value" binding:"omitempty"`
	Metadata     map[string]any `json:"metadata" binding:"omitempty"`
}

// BatchActivitiesRequest ingests up to 500 activities in one call.
type BatchActivitiesRequest struct {
	Activities []RecordActivityRequest `json:"activities" binding:"required,min=1,max=500,dive"`
}

// BulkUpdateScoresRequest re-scores the named leads, or the whole
// organization when the list is empty. TriggeredBy defaults to manual.
type BulkUpdateScoresRequest struct {
	LeadIDs     []string `json:"leadIds" binding:"omitempty,max=1000,dive,uuid"`
	TriggeredBy string   `json:"triggeredBy" binding:"omitempty,oneof=manual activity batch_activity automation"`
}

// UpdateConfigurationRequest is a partial scoring configuration update.
// Weight maps replace the stored map wholesale; scalar fields patch
// individually.
type UpdateConfigurationRequest struct {
	SourceWeights      map[string]float64                  `json:"sourceWeights" binding:"omitempty"`
	ActivityWeights    map[string]float64                  `json:"activityWeights" binding:"omitempty"`
	TimeDecaySettings  *scoring.TimeDecayPatch             `json:"timeDecaySettings" binding:"omitempty"`
	AutomationTriggers *scoring.TemperatureThresholdsPatch `json:"automationTriggers" binding:"omitempty"`
}

// Patch converts the request into the scoring layer's patch type.
func (r UpdateConfigurationRequest) Patch() scoring.ConfigurationPatch {
	return scoring.ConfigurationPatch{
		SourceWeights:      r.SourceWeights,
		ActivityWeights:    r.ActivityWeights,
		TimeDecaySettings:  r.TimeDecaySettings,
		AutomationTriggers: r.AutomationTriggers,
	}
}

// ScoreResponse reports a lead's current score with its factor breakdown.
type ScoreResponse struct {
	LeadID      string            `json:"leadId"`
	Score       int               `json:"score"`
	Temperature string            `json:"temperature"`
	Breakdown   scoring.Breakdown `json:"breakdown"`
	UpdatedAt   string            `json:"updatedAt,omitempty"`
}

// LeadSummary is the list-view projection of a lead.
type LeadSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Source      string `json:"source"`
	Score       int    `json:"score"`
	Temperature string `json:"temperature"`
}

// NewLeadSummary projects a repository lead for list responses.
func NewLeadSummary(lead repository.Lead) LeadSummary {
	return LeadSummary{
		ID:          lead.ID.String(),
		Name:        lead.Name,
		Email:       lead.Email,
		Phone:       phone.NormalizeE164(lead.Phone),
		Source:      lead.Source,
		Score:       lead.LeadScore,
		Temperature: string(scoring.TemperatureFor(lead.LeadScore)),
	}
}

// LeadListResponse wraps a list of leads.
type LeadListResponse struct {
	Leads []LeadSummary `json:"leads"`
	Total int           `json:"total"`
}

// ConfigurationResponse wraps the resolved scoring configuration.
type ConfigurationResponse struct {
	Configuration scoring.Configuration `json:"configuration"`
}

// AnalyticsResponse wraps the scoring analytics payload.
type AnalyticsResponse struct {
	Analytics service.Analytics `json:"analytics"`
}

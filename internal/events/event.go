// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"gymflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Scoring Domain Events
// =============================================================================

// LeadScoreChanged is published after a score update commits with a new total.
// The automation outbox is the durable delivery channel; this event lets
// in-process modules react without a round trip.
type LeadScoreChanged struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	PreviousScore  int       `json:"previousScore"`
	NewScore       int       `json:"newScore"`
	TriggeredBy    string    `json:"triggeredBy"`
	ChangeReason   string    `json:"changeReason,omitempty"`
}

func (e LeadScoreChanged) EventName() string { return "leads.score.changed" }

// LeadActivityRecorded is published when a lead activity is ingested.
type LeadActivityRecorded struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	ActivityType   string    `json:"activityType"`
	ActivityValue  float64   `json:"activityValue"`
}

func (e LeadActivityRecorded) EventName() string { return "leads.activity.recorded" }

// ScoringConfigurationUpdated is published when an organization's scoring
// weights change, so cached configuration can be invalidated.
type ScoringConfigurationUpdated struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (e ScoringConfigurationUpdated) EventName() string { return "scoring.configuration.updated" }

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Interaction directions as logged by the communications system.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// triggered_by values recorded on score history entries.
const (
	TriggeredByManual        = "manual"
	TriggeredByActivity      = "activity"
	TriggeredByBatchActivity = "batch_activity"
	TriggeredByAutomation    = "automation"
)

// ValidTriggeredBy reports whether v is one of the recorded trigger causes.
func ValidTriggeredBy(v string) bool {
	switch v {
	case TriggeredByManual, TriggeredByActivity, TriggeredByBatchActivity, TriggeredByAutomation:
		return true
	}
	return false
}

// Lead is a prospective member record, the unit of scoring. Identity fields
// and source are written by intake flows; only LeadScore is mutated here.
type Lead struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          string
	Phone          string
	Source         string
	Metadata       map[string]any
	LeadScore      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LeadActivity is an append-only behavioral signal (page view, booking
// attempt, ...). Never updated or deleted.
type LeadActivity struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	ActivityType   string
	ActivityValue  float64
	Metadata       map[string]any
	CreatedAt      time.Time
}

// NewActivity carries one activity to be recorded. ActivityValue nil means
// "default from the tenant's activity weight table".
type NewActivity struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	ActivityType   string
	ActivityValue  *float64
	Metadata       map[string]any
}

// Interaction is one entry from the communications log (email, SMS, call,
// WhatsApp). Written by external systems; read-only here.
type Interaction struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	Direction      string
	Channel        string
	OccurredAt     time.Time
}

// ScoringFactors is the current per-lead score snapshot: seven sub-scores
// plus the clamped total. Rewritten in full on every re-score; a derived
// view, not a source of truth.
type ScoringFactors struct {
	LeadID              uuid.UUID
	OrganizationID      uuid.UUID
	SourceQuality       float64
	Engagement          float64
	Behavioral          float64
	Communication       float64
	ProfileCompleteness float64
	TimeDecay           float64
	AIAnalysis          float64
	TotalScore          int
	Version             string
	UpdatedAt           time.Time
}

// ScoreHistoryEntry is an immutable audit record of one score change.
type ScoreHistoryEntry struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	PreviousScore  int
	NewScore       int
	ScoreChange    int
	TriggeredBy    string
	ChangeReason   *string
	CreatedAt      time.Time
}

// PersistScoreParams carries one computed score update into storage.
type PersistScoreParams struct {
	OrganizationID uuid.UUID
	LeadID         uuid.UUID
	Factors        ScoringFactors
	TriggeredBy    string
	ChangeReason   *string
}

// PersistScoreResult reports what the transaction observed and wrote.
type PersistScoreResult struct {
	PreviousScore int
	NewScore      int
	Changed       bool
}

// LeadRef identifies a lead within its organization.
type LeadRef struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
}

// ActivityTypeCount is one row of the top-activity-types aggregation.
type ActivityTypeCount struct {
	ActivityType string `json:"activityType"`
	Count        int    `json:"count"`
}

// ScoreDistribution counts leads per temperature band.
type ScoreDistribution struct {
	Hot      int `json:"hot"`
	Warm     int `json:"warm"`
	Lukewarm int `json:"lukewarm"`
	Cold     int `json:"cold"`
}

// LeadReader provides read access to leads.
type LeadReader interface {
	GetLead(ctx context.Context, organizationID, leadID uuid.UUID) (Lead, error)
	ListLeadsByScoreRange(ctx context.Context, organizationID uuid.UUID, minScore, maxScore int) ([]Lead, error)
	ListLeadIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error)
}

// ActivityStore records and reads lead activities.
type ActivityStore interface {
	InsertActivity(ctx context.Context, activity NewActivity) (LeadActivity, error)
	InsertActivities(ctx context.Context, activities []NewActivity) (int, error)
	ListLeadActivities(ctx context.Context, organizationID, leadID uuid.UUID) ([]LeadActivity, error)
}

// InteractionReader reads the communications log.
type InteractionReader interface {
	ListLeadInteractions(ctx context.Context, organizationID, leadID uuid.UUID) ([]Interaction, error)
}

// ScoreStore persists score snapshots and history.
type ScoreStore interface {
	GetScoringFactors(ctx context.Context, organizationID, leadID uuid.UUID) (ScoringFactors, error)
	PersistScore(ctx context.Context, params PersistScoreParams) (PersistScoreResult, error)
	ListStaleScoredLeads(ctx context.Context, scoredBefore time.Time, limit int) ([]LeadRef, error)
}

// ConfigStore persists per-organization scoring configuration as JSON.
type ConfigStore interface {
	GetScoringConfigJSON(ctx context.Context, organizationID uuid.UUID) ([]byte, error)
	UpsertScoringConfigJSON(ctx context.Context, organizationID uuid.UUID, raw []byte) error
}

// AnalyticsReader aggregates scores and activities for dashboards.
type AnalyticsReader interface {
	AverageLeadScore(ctx context.Context, organizationID uuid.UUID) (float64, int, error)
	CountLeadsByBand(ctx context.Context, organizationID uuid.UUID) (ScoreDistribution, error)
	TopActivityTypes(ctx context.Context, organizationID uuid.UUID, since time.Time, limit int) ([]ActivityTypeCount, error)
	RecentScoreHistory(ctx context.Context, organizationID uuid.UUID, since time.Time, limit int) ([]ScoreHistoryEntry, error)
}

// Repository combines all lead scoring storage operations.
type Repository interface {
	LeadReader
	ActivityStore
	InteractionReader
	ScoreStore
	ConfigStore
	AnalyticsReader
}

// Package scoring computes lead scores from weighted signals.
//
// Seven independent calculators each map lead data to a bounded contribution;
// the composite is their clamped sum. Calculators are pure functions of their
// inputs so each is independently testable.
package scoring

import (
	"math"
	"slices"
	"time"

	"gymflow_backend/internal/leads/repository"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// Maximum contribution from each factor category. The AI analysis factor
	// is supplied by an external model and is not bounded here.
	maxSourceQualityContribution = 20.0
	maxEngagementContribution    = 25.0
	maxBehavioralContribution    = 20.0
	maxCommunicationContribution = 15.0
	maxCompletenessContribution  = 10.0
	maxTimeDecayContribution     = 10.0

	// engagementPointsPerInteraction converts raw interaction volume to score.
	engagementPointsPerInteraction = 3.0

	// responsivenessWindow is how far back inbound messages count toward the
	// communication factor.
	responsivenessWindow = 30 * 24 * time.Hour
)

// Version returns the current scoring model version tag.
func Version() string { return scoreVersion }

// Input bundles everything the calculators read for one lead.
type Input struct {
	Lead         repository.Lead
	Activities   []repository.LeadActivity
	Interactions []repository.Interaction
	AIScore      float64
	Config       Configuration
	Now          time.Time
}

// Breakdown holds the seven factor contributions and their clamped total.
type Breakdown struct {
	SourceQuality       float64 `json:"sourceQuality"`
	Engagement          float64 `json:"engagement"`
	Behavioral          float64 `json:"behavioral"`
	Communication       float64 `json:"communication"`
	ProfileCompleteness float64 `json:"profileCompleteness"`
	TimeDecay           float64 `json:"timeDecay"`
	AIAnalysis          float64 `json:"aiAnalysis"`
	Total               int     `json:"total"`
	Version             string  `json:"version"`
}

// Compute runs all seven calculators and clamps the composite to 0-100.
// Every sub-score is reported in the breakdown even when zero.
func Compute(in Input) Breakdown {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	b := Breakdown{
		SourceQuality:       SourceQuality(in.Lead.Source, in.Config),
		Engagement:          Engagement(len(in.Interactions)),
		Behavioral:          Behavioral(in.Activities),
		Communication:       CommunicationResponsiveness(in.Interactions, now),
		ProfileCompleteness: ProfileCompleteness(in.Lead.Name, in.Lead.Email, in.Lead.Phone, in.Lead.Metadata),
		TimeDecay:           TimeDecay(in.Lead.CreatedAt, now),
		AIAnalysis:          in.AIScore,
		Version:             scoreVersion,
	}

	sum := b.SourceQuality + b.Engagement + b.Behavioral + b.Communication +
		b.ProfileCompleteness + b.TimeDecay + b.AIAnalysis
	b.Total = clampScore(sum)

	return b
}

// SourceQuality evaluates the acquisition channel against the tenant's source
// weight table. Unknown sources get a neutral fallback rather than zero, so a
// new channel does not tank every lead it produces.
func SourceQuality(source string, cfg Configuration) float64 {
	weight := cfg.SourceWeight(source)
	return clampFloat(weight, 0, maxSourceQualityContribution)
}

// Engagement converts total interaction volume (any direction, any channel)
// into score: three points per interaction, capped.
func Engagement(interactionCount int) float64 {
	if interactionCount <= 0 {
		return 0
	}
	return math.Min(maxEngagementContribution, float64(interactionCount)*engagementPointsPerInteraction)
}

// Behavioral sums the value of every recorded activity, all-time, capped.
// Activity values default from the tenant's activity weight table at ingest,
// so negative signals (missed calls) subtract here.
func Behavioral(activities []repository.LeadActivity) float64 {
	sum := 0.0
	for _, a := range activities {
		sum += a.ActivityValue
	}
	return math.Min(maxBehavioralContribution, sum)
}

// CommunicationResponsiveness measures how quickly the lead replies. Only
// inbound interactions in the trailing 30 days count, and at least two are
// required to measure a gap. Faster reply cadence indicates higher intent.
func CommunicationResponsiveness(interactions []repository.Interaction, now time.Time) float64 {
	cutoff := now.Add(-responsivenessWindow)

	var inbound []time.Time
	for _, i := range interactions {
		if i.Direction == repository.DirectionInbound && !i.OccurredAt.Before(cutoff) {
			inbound = append(inbound, i.OccurredAt)
		}
	}
	if len(inbound) < 2 {
		return 0
	}

	sortTimes(inbound)

	totalGap := 0.0
	for i := 1; i < len(inbound); i++ {
		totalGap += inbound[i].Sub(inbound[i-1]).Hours()
	}
	avgGapHours := totalGap / float64(len(inbound)-1)

	switch {
	case avgGapHours <= 1:
		return maxCommunicationContribution
	case avgGapHours <= 4:
		return 12
	case avgGapHours <= 24:
		return 8
	default:
		return 4
	}
}

// ProfileCompleteness rewards identity fields and enrichment metadata.
// Two points per contact field; metadata depth adds up to four more.
func ProfileCompleteness(name, email, phone string, metadata map[string]any) float64 {
	score := 0.0
	if name != "" {
		score += 2
	}
	if email != "" {
		score += 2
	}
	if phone != "" {
		score += 2
	}

	switch keys := len(metadata); {
	case keys > 2:
		score += 4
	case keys >= 1:
		score += 2
	}

	return clampFloat(score, 0, maxCompletenessContribution)
}

// TimeDecay models urgency loss as the lead ages. The floor is 1, never 0:
// ancient leads stay reachable by manual re-engagement.
func TimeDecay(createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24

	switch {
	case days <= 1:
		return maxTimeDecayContribution
	case days <= 3:
		return 8
	case days <= 7:
		return 6
	case days <= 14:
		return 4
	case days <= 30:
		return 2
	default:
		return 1
	}
}

// sortTimes orders timestamps ascending.
func sortTimes(ts []time.Time) {
	slices.SortFunc(ts, func(a, b time.Time) int {
		return a.Compare(b)
	})
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func clampFloat(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

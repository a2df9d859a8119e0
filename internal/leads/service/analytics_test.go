package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"gymflow_backend/internal/leads/repository"
)

func TestGetAnalyticsAggregates(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID := uuid.New()

	scores := []int{85, 62, 45, 10}
	for _, score := range scores {
		id := uuid.New()
		repo.leads[id] = repository.Lead{ID: id, OrganizationID: orgID, LeadScore: score}
	}

	analytics, err := svc.GetAnalytics(context.Background(), orgID)
	if err != nil {
		t.Fatalf("GetAnalytics: %v", err)
	}

	if analytics.TotalLeads != 4 {
		t.Errorf("total leads = %d, want 4", analytics.TotalLeads)
	}
	if analytics.AverageScore != 50.5 {
		t.Errorf("average score = %v, want 50.5", analytics.AverageScore)
	}
	want := repository.ScoreDistribution{Hot: 1, Warm: 1, Lukewarm: 1, Cold: 1}
	if analytics.Distribution != want {
		t.Errorf("distribution = %+v, want %+v", analytics.Distribution, want)
	}
}

func TestLeadsByTemperatureFiltersByBand(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID := uuid.New()

	hot := uuid.New()
	repo.leads[hot] = repository.Lead{ID: hot, OrganizationID: orgID, LeadScore: 92}
	cold := uuid.New()
	repo.leads[cold] = repository.Lead{ID: cold, OrganizationID: orgID, LeadScore: 12}

	leads, err := svc.LeadsByTemperature(context.Background(), orgID, "hot")
	if err != nil {
		t.Fatalf("LeadsByTemperature: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != hot {
		t.Errorf("hot band returned %d leads", len(leads))
	}
}

func TestRefreshStaleScoresProcessesOnlyStaleLeads(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadID := seedLead(repo)

	repo.factors[leadID] = repository.ScoringFactors{
		LeadID:         leadID,
		OrganizationID: orgID,
		UpdatedAt:      time.Now().UTC().Add(-48 * time.Hour),
	}

	processed, err := svc.RefreshStaleScores(context.Background(), time.Now().UTC().Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("RefreshStaleScores: %v", err)
	}
	if processed != 1 {
		t.Errorf("processed = %d, want 1", processed)
	}
	if len(repo.history) != 1 || repo.history[0].TriggeredBy != repository.TriggeredByAutomation {
		t.Errorf("history = %+v", repo.history)
	}
}

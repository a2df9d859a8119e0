package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gymflow_backend/internal/events"
	"gymflow_backend/internal/leads/scoring"
	"gymflow_backend/platform/logger"
)

func TestGetConfigurationFallsBackToDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	cfg, err := svc.GetConfiguration(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetConfiguration: %v", err)
	}

	defaults := scoring.DefaultConfiguration()
	if cfg.SourceWeights["referral"] != defaults.SourceWeights["referral"] {
		t.Errorf("referral weight = %v, want default %v", cfg.SourceWeights["referral"], defaults.SourceWeights["referral"])
	}
	if cfg.AutomationTriggers != defaults.AutomationTriggers {
		t.Errorf("AutomationTriggers = %+v, want defaults", cfg.AutomationTriggers)
	}
}

func TestGetConfigurationToleratesCorruptStoredJSON(t *testing.T) {
	repo := newFakeRepo()
	repo.configJSON = []byte("{not json")
	svc, _ := newTestService(repo)

	cfg, err := svc.GetConfiguration(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetConfiguration: %v", err)
	}
	if cfg.SourceWeights["referral"] != 20 {
		t.Error("corrupt stored config should fall back to defaults")
	}
}

func TestUpdateConfigurationPersistsMergedResult(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newTestService(repo)
	orgID := uuid.New()

	hot := 90
	merged, err := svc.UpdateConfiguration(context.Background(), orgID, scoring.ConfigurationPatch{
		SourceWeights:      map[string]float64{"referral": 18, "website": 14},
		AutomationTriggers: &scoring.TemperatureThresholdsPatch{HotThreshold: &hot},
	})
	if err != nil {
		t.Fatalf("UpdateConfiguration: %v", err)
	}

	if merged.SourceWeights["referral"] != 18 {
		t.Errorf("referral weight = %v, want 18", merged.SourceWeights["referral"])
	}
	if merged.AutomationTriggers.HotThreshold != 90 || merged.AutomationTriggers.WarmThreshold != 60 {
		t.Errorf("AutomationTriggers = %+v", merged.AutomationTriggers)
	}
	// untouched activityWeights stay at defaults
	if merged.ActivityWeights["booking_attempt"] != 10 {
		t.Errorf("booking_attempt = %v, want 10", merged.ActivityWeights["booking_attempt"])
	}

	// the merge round-trips through storage
	stored, err := svc.GetConfiguration(context.Background(), orgID)
	if err != nil {
		t.Fatalf("GetConfiguration after update: %v", err)
	}
	if stored.SourceWeights["referral"] != 18 {
		t.Errorf("stored referral weight = %v, want 18", stored.SourceWeights["referral"])
	}

	published := bus.published()
	if len(published) != 1 {
		t.Fatalf("published events = %d, want 1", len(published))
	}
	if _, ok := published[0].(events.ScoringConfigurationUpdated); !ok {
		t.Errorf("published event has type %T", published[0])
	}
}

func TestGetConfigurationReadsThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	repo := newFakeRepo()
	svc := NewService(repo, logger.New("development"), &fakeBus{}, cache, 0)
	orgID := uuid.New()

	if _, err := svc.GetConfiguration(context.Background(), orgID); err != nil {
		t.Fatalf("first GetConfiguration: %v", err)
	}
	if repo.configReads != 1 {
		t.Fatalf("config reads after first call = %d, want 1", repo.configReads)
	}

	if _, err := svc.GetConfiguration(context.Background(), orgID); err != nil {
		t.Fatalf("second GetConfiguration: %v", err)
	}
	if repo.configReads != 1 {
		t.Errorf("config reads after cached call = %d, want still 1", repo.configReads)
	}
}

func TestUpdateConfigurationInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	repo := newFakeRepo()
	svc := NewService(repo, logger.New("development"), &fakeBus{}, cache, 0)
	orgID := uuid.New()

	if _, err := svc.GetConfiguration(context.Background(), orgID); err != nil {
		t.Fatalf("GetConfiguration: %v", err)
	}

	weights := map[string]float64{"referral": 30}
	if _, err := svc.UpdateConfiguration(context.Background(), orgID, scoring.ConfigurationPatch{SourceWeights: weights}); err != nil {
		t.Fatalf("UpdateConfiguration: %v", err)
	}

	cfg, err := svc.GetConfiguration(context.Background(), orgID)
	if err != nil {
		t.Fatalf("GetConfiguration after update: %v", err)
	}
	if cfg.SourceWeights["referral"] != 30 {
		t.Errorf("referral weight = %v, want fresh 30 after invalidation", cfg.SourceWeights["referral"])
	}
}

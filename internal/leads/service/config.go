package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gymflow_backend/internal/events"
	"gymflow_backend/internal/leads/scoring"
)

func configCacheKey(organizationID uuid.UUID) string {
	return "scoring:config:" + organizationID.String()
}

// GetConfiguration returns the organization's scoring configuration, reading
// through the Redis cache. A tenant that never customized anything gets the
// defaults; cache misses and cache errors fall back to the database.
func (s *Service) GetConfiguration(ctx context.Context, organizationID uuid.UUID) (scoring.Configuration, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, configCacheKey(organizationID)).Bytes()
		if err == nil {
			var cfg scoring.Configuration
			if err := json.Unmarshal(cached, &cfg); err == nil {
				return cfg, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("scoring config cache read failed", "error", err)
		}
	}

	cfg, err := s.loadConfiguration(ctx, organizationID)
	if err != nil {
		return scoring.Configuration{}, err
	}

	s.cacheConfiguration(ctx, organizationID, cfg)
	return cfg, nil
}

// UpdateConfiguration merges a partial update onto the stored configuration,
// persists the result and invalidates the cache.
func (s *Service) UpdateConfiguration(ctx context.Context, organizationID uuid.UUID, patch scoring.ConfigurationPatch) (scoring.Configuration, error) {
	current, err := s.loadConfiguration(ctx, organizationID)
	if err != nil {
		return scoring.Configuration{}, err
	}

	merged := current.Apply(patch)
	raw, err := json.Marshal(merged)
	if err != nil {
		return scoring.Configuration{}, fmt.Errorf("marshal scoring config: %w", err)
	}
	if err := s.repo.UpsertScoringConfigJSON(ctx, organizationID, raw); err != nil {
		return scoring.Configuration{}, err
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, configCacheKey(organizationID)).Err(); err != nil {
			s.log.Warn("scoring config cache invalidation failed", "error", err)
		}
	}

	s.bus.Publish(ctx, events.ScoringConfigurationUpdated{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: organizationID,
	})

	return merged, nil
}

// loadConfiguration reads the stored configuration, bypassing the cache.
// Missing or unparseable settings yield the defaults.
func (s *Service) loadConfiguration(ctx context.Context, organizationID uuid.UUID) (scoring.Configuration, error) {
	raw, err := s.repo.GetScoringConfigJSON(ctx, organizationID)
	if err != nil {
		if isNotFound(err) {
			return scoring.DefaultConfiguration(), nil
		}
		return scoring.Configuration{}, err
	}
	if len(raw) == 0 {
		return scoring.DefaultConfiguration(), nil
	}

	var cfg scoring.Configuration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.log.Warn("stored scoring config is unreadable, using defaults",
			"organizationId", organizationID, "error", err)
		return scoring.DefaultConfiguration(), nil
	}

	// stored configs written before new sections existed fill from defaults
	defaults := scoring.DefaultConfiguration()
	if cfg.SourceWeights == nil {
		cfg.SourceWeights = defaults.SourceWeights
	}
	if cfg.ActivityWeights == nil {
		cfg.ActivityWeights = defaults.ActivityWeights
	}
	if cfg.TimeDecaySettings == (scoring.TimeDecaySettings{}) {
		cfg.TimeDecaySettings = defaults.TimeDecaySettings
	}
	if cfg.AutomationTriggers == (scoring.TemperatureThresholds{}) {
		cfg.AutomationTriggers = defaults.AutomationTriggers
	}
	return cfg, nil
}

func (s *Service) cacheConfiguration(ctx context.Context, organizationID uuid.UUID, cfg scoring.Configuration) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, configCacheKey(organizationID), raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("scoring config cache write failed", "error", err)
	}
}


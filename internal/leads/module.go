// Package leads provides the lead scoring bounded context module.
// It scores prospective members from weighted behavioral signals and keeps
// a full audit history of every score change.
package leads

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"gymflow_backend/internal/events"
	apphttp "gymflow_backend/internal/http"
	"gymflow_backend/internal/leads/handler"
	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/internal/leads/service"
	"gymflow_backend/platform/logger"
	"gymflow_backend/platform/validator"
)

// Module is the lead scoring bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
	log     *logger.Logger
}

// NewModule creates and initializes the lead scoring module. cache may be nil
// when Redis is not configured.
func NewModule(pool *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration, val *validator.Validator, log *logger.Logger, bus events.Bus) *Module {
	repo := repository.NewPostgres(pool)
	svc := service.NewService(repo, log, bus, cache, cacheTTL)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
		log:     log,
	}
}

// RegisterHandlers subscribes to domain events for audit logging. Score
// changes are already logged at the point of persistence.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadActivityRecorded{}.EventName(), m)
	bus.Subscribe(events.ScoringConfigurationUpdated{}.EventName(), m)
}

// Handle routes subscribed events to their log entries.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadActivityRecorded:
		m.log.ActivityRecorded(e.LeadID.String(), e.ActivityType, e.ActivityValue)
	case events.ScoringConfigurationUpdated:
		m.log.ConfigurationUpdated(e.OrganizationID.String())
	}
	return nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use (scheduler jobs, CLI).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead scoring routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Score read and recalculation (tenant-scoped)
	ctx.Protected.GET("/leads/:id/score", m.handler.GetScore)
	ctx.Protected.POST("/leads/:id/score/recalculate", m.handler.RecalculateScore)
	ctx.Protected.GET("/leads/by-temperature/:temperature", m.handler.LeadsByTemperature)

	// Activity ingest takes tracking-pixel style bursts, so it gets its own
	// burst-tolerant limiter on top of auth.
	activities := ctx.Protected.Group("/activities")
	if ctx.IngestRateLimiter != nil {
		activities.Use(ctx.IngestRateLimiter.RateLimit())
	}
	activities.POST("", m.handler.RecordActivity)
	activities.POST("/batch", m.handler.RecordActivitiesBatch)

	// Configuration and analytics
	ctx.Protected.GET("/scoring/configuration", m.handler.GetConfiguration)
	ctx.Protected.GET("/scoring/analytics", m.handler.GetAnalytics)

	// Admin-only write endpoints
	ctx.Admin.PUT("/scoring/configuration", m.handler.UpdateConfiguration)
	ctx.Admin.POST("/scoring/bulk-update", m.handler.BulkUpdateScores)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

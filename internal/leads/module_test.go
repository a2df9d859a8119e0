package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"gymflow_backend/internal/events"
	"gymflow_backend/platform/logger"
	"gymflow_backend/platform/validator"
)

func newTestModule(t *testing.T) (*Module, *events.InMemoryBus) {
	t.Helper()
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	m := NewModule(nil, nil, time.Minute, validator.New(), log, bus)
	m.RegisterHandlers(bus)
	return m, bus
}

func TestModuleHandlesSubscribedEvents(t *testing.T) {
	m, bus := newTestModule(t)
	ctx := context.Background()

	err := bus.PublishSync(ctx, events.LeadActivityRecorded{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         uuid.New(),
		OrganizationID: uuid.New(),
		ActivityType:   "booking_attempt",
		ActivityValue:  10,
	})
	if err != nil {
		t.Errorf("activity event: %v", err)
	}

	err = bus.PublishSync(ctx, events.ScoringConfigurationUpdated{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: uuid.New(),
	})
	if err != nil {
		t.Errorf("configuration event: %v", err)
	}

	// Events the module did not subscribe to pass through untouched.
	if err := m.Handle(ctx, events.LeadScoreChanged{BaseEvent: events.NewBaseEvent()}); err != nil {
		t.Errorf("unsubscribed event: %v", err)
	}
}

func TestModuleName(t *testing.T) {
	m, _ := newTestModule(t)
	if m.Name() != "leads" {
		t.Errorf("Name() = %q, want leads", m.Name())
	}
}

package events

import (
	platformevents "gymflow_backend/platform/events"
	"gymflow_backend/platform/logger"
)

// InMemoryBus aliases the platform bus so modules only import
// internal/events for both the event types and the wiring.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus builds the process-local bus the modules publish on.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

package events

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/travel-agency/pkg/logger"
)

// RegisterAuditLog subscribes a structured audit line to every collaborator
// event type. The request logger carried by ctx is preferred so the line keeps
// its trace and user attributes.
func RegisterAuditLog(bus *EventBus, fallback *slog.Logger) {
	if fallback == nil {
		fallback = slog.Default()
	}

	audit := func(ctx context.Context, event Event) error {
		lg, ok := logger.FromContext(ctx)
		if !ok {
			lg = fallback
		}
		lg.Info("audit",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}

	bus.Subscribe(EventTypeAssignmentChange, audit)
	bus.Subscribe(EventTypeColabsReconciled, audit)
}

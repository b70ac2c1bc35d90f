package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
)

// publishEvent sends a domain event on the bus. Delivery is best effort:
// failures are logged, never returned, and never roll back the command.
func publishEvent(ctx context.Context, publisher eventbus.Publisher, logger *slog.Logger, event sharedDomain.DomainEvent) {
	if publisher == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal event payload",
			"routing_key", event.RoutingKey(),
			"error", err,
		)
		return
	}

	envelope := eventbus.ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		logger.Error("failed to marshal event envelope",
			"routing_key", event.RoutingKey(),
			"error", err,
		)
		return
	}

	if err := publisher.Publish(ctx, event.RoutingKey(), body); err != nil {
		logger.Error("failed to publish event",
			"routing_key", event.RoutingKey(),
			"event_id", event.EventID(),
			"error", err,
		)
	}
}

package eventbus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func newTestRegistry() *eventbus.ConsumerRegistry {
	return eventbus.NewConsumerRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func eventFor(key string) *eventbus.ConsumedEvent {
	return &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "Task",
		RoutingKey:    key,
	}
}

func TestConsumerRegistryRoutesByEventType(t *testing.T) {
	registry := newTestRegistry()

	// One consumer listening on both completion keys, as the streak
	// subscriber does.
	consumer := &mockConsumer{
		eventTypes: []string{"projects.task.completed", "projects.task.finalized"},
	}
	registry.Register(consumer)

	assert.Len(t, registry.GetConsumers("projects.task.completed"), 1)
	assert.Len(t, registry.GetConsumers("projects.task.finalized"), 1)
	assert.Empty(t, registry.GetConsumers("identity.rating.submitted"))

	types := registry.GetAllEventTypes()
	assert.Len(t, types, 2)
	assert.Contains(t, types, "projects.task.completed")
	assert.Contains(t, types, "projects.task.finalized")
}

func TestConsumerRegistryDispatch(t *testing.T) {
	registry := newTestRegistry()
	consumer := &mockConsumer{eventTypes: []string{"projects.task.completed"}}
	registry.Register(consumer)

	event := eventFor("projects.task.completed")
	require.NoError(t, registry.Dispatch(context.Background(), event))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
}

func TestConsumerRegistryDispatchFansOut(t *testing.T) {
	registry := newTestRegistry()
	streaks := &mockConsumer{eventTypes: []string{"projects.task.completed"}}
	leaderboard := &mockConsumer{eventTypes: []string{"projects.task.completed"}}
	registry.Register(streaks)
	registry.Register(leaderboard)

	require.NoError(t, registry.Dispatch(context.Background(), eventFor("projects.task.completed")))

	assert.Len(t, streaks.events, 1)
	assert.Len(t, leaderboard.events, 1)
}

func TestConsumerRegistryDispatchUnroutedEvent(t *testing.T) {
	registry := newTestRegistry()
	require.NoError(t, registry.Dispatch(context.Background(), eventFor("identity.rating.submitted")))
}

func TestConsumerRegistryDispatchReturnsConsumerError(t *testing.T) {
	registry := newTestRegistry()
	wantErr := errors.New("stats store down")
	consumer := &mockConsumer{
		eventTypes: []string{"projects.task.completed"},
		err:        wantErr,
	}
	registry.Register(consumer)

	err := registry.Dispatch(context.Background(), eventFor("projects.task.completed"))

	assert.Equal(t, wantErr, err)
	assert.Len(t, consumer.events, 1)
}

func TestConsumerRegistryDispatchContinuesAfterError(t *testing.T) {
	registry := newTestRegistry()
	failing := &mockConsumer{
		eventTypes: []string{"projects.task.completed"},
		err:        errors.New("streak update failed"),
	}
	healthy := &mockConsumer{eventTypes: []string{"projects.task.completed"}}
	registry.Register(failing)
	registry.Register(healthy)

	err := registry.Dispatch(context.Background(), eventFor("projects.task.completed"))

	// The error surfaces but does not short-circuit the remaining consumers.
	assert.Error(t, err)
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestConsumerRegistryConsumerCount(t *testing.T) {
	registry := newTestRegistry()
	assert.Equal(t, 0, registry.ConsumerCount())

	registry.Register(&mockConsumer{eventTypes: []string{"projects.task.completed"}})
	assert.Equal(t, 1, registry.ConsumerCount())

	// A consumer registered for two types counts once per type.
	registry.Register(&mockConsumer{
		eventTypes: []string{"projects.task.completed", "identity.rating.submitted"},
	})
	assert.Equal(t, 3, registry.ConsumerCount())
}

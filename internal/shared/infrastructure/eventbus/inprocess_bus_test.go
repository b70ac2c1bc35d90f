package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskCompletedKey = "projects.task.completed"

func newTestBus() *eventbus.InProcessEventBus {
	return eventbus.NewInProcessEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func completionEvent() *eventbus.ConsumedEvent {
	return &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "Task",
		RoutingKey:    taskCompletedKey,
		Payload:       json.RawMessage(`{"task_id":"t","user_id":"u"}`),
		OccurredAt:    time.Now(),
	}
}

func TestInProcessEventBusDispatchesSynchronously(t *testing.T) {
	bus := newTestBus()
	consumer := &mockConsumer{eventTypes: []string{taskCompletedKey}}
	bus.RegisterConsumer(consumer)

	event := completionEvent()
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), taskCompletedKey, payload))

	// Dispatch happens inline, so the consumer has the event before Publish
	// returns.
	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
}

func TestInProcessEventBusPublishConsumedEvent(t *testing.T) {
	bus := newTestBus()
	consumer := &mockConsumer{eventTypes: []string{taskCompletedKey}}
	bus.RegisterConsumer(consumer)

	event := completionEvent()
	require.NoError(t, bus.PublishConsumedEvent(context.Background(), event))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
}

func TestInProcessEventBusFansOutToAllConsumers(t *testing.T) {
	bus := newTestBus()
	streaks := &mockConsumer{eventTypes: []string{taskCompletedKey}}
	leaderboard := &mockConsumer{eventTypes: []string{taskCompletedKey}}
	bus.RegisterConsumer(streaks)
	bus.RegisterConsumer(leaderboard)

	require.NoError(t, bus.PublishConsumedEvent(context.Background(), completionEvent()))

	assert.Len(t, streaks.events, 1)
	assert.Len(t, leaderboard.events, 1)
}

func TestInProcessEventBusIgnoresUnroutedEvents(t *testing.T) {
	bus := newTestBus()

	payload, err := json.Marshal(completionEvent())
	require.NoError(t, err)

	// No consumer registered for this key: publish still succeeds.
	require.NoError(t, bus.Publish(context.Background(), "identity.rating.submitted", payload))
}

func TestInProcessEventBusSwallowsConsumerErrors(t *testing.T) {
	bus := newTestBus()
	consumer := &mockConsumer{
		eventTypes: []string{taskCompletedKey},
		err:        errors.New("stats unavailable"),
	}
	bus.RegisterConsumer(consumer)

	payload, err := json.Marshal(completionEvent())
	require.NoError(t, err)

	// Local mode logs consumer failures instead of failing the publish; the
	// command that emitted the event already committed.
	require.NoError(t, bus.Publish(context.Background(), taskCompletedKey, payload))
	assert.Len(t, consumer.events, 1)
}

func TestInProcessEventBusDropsMalformedPayloads(t *testing.T) {
	bus := newTestBus()
	consumer := &mockConsumer{eventTypes: []string{taskCompletedKey}}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(context.Background(), taskCompletedKey, []byte("not json")))
	assert.Empty(t, consumer.events)
}

func TestInProcessEventBusClose(t *testing.T) {
	bus := newTestBus()
	require.NoError(t, bus.Close())
	assert.NotNil(t, bus.GetRegistry())
}

func TestInProcessPublisher(t *testing.T) {
	bus := newTestBus()
	consumer := &mockConsumer{eventTypes: []string{taskCompletedKey}}
	bus.RegisterConsumer(consumer)

	publisher := eventbus.NewInProcessPublisher(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))

	payload, err := json.Marshal(completionEvent())
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), taskCompletedKey, payload))
	assert.Len(t, consumer.events, 1)

	require.NoError(t, publisher.Close())
}

func TestCreateConsumedEvent(t *testing.T) {
	eventID := uuid.New()
	taskID := uuid.New()
	userID := uuid.New()
	payload := json.RawMessage(`{"task_id":"abc"}`)

	event := eventbus.CreateConsumedEvent(eventID, taskID, "Task", taskCompletedKey, payload, userID)

	assert.Equal(t, eventID, event.EventID)
	assert.Equal(t, taskID, event.AggregateID)
	assert.Equal(t, "Task", event.AggregateType)
	assert.Equal(t, taskCompletedKey, event.RoutingKey)
	assert.Equal(t, payload, event.Payload)
	assert.Equal(t, userID, event.Metadata.UserID)
	assert.False(t, event.OccurredAt.IsZero())
}

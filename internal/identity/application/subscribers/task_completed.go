// Package subscribers wires identity-side reactions to events from other
// contexts.
package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/atelier/internal/identity/application/queries"
	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

const taskCompletedRoutingKey = "projects.task.completed"

type taskCompletedPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	CompletedOn time.Time `json:"completed_on"`
	OnTime      bool      `json:"on_time"`
}

// TaskCompletedSubscriber updates a user's completed-task counter and
// activity streak whenever they finish a task.
type TaskCompletedSubscriber struct {
	userRepo domain.Repository
	cache    queries.LeaderboardCache
	logger   *slog.Logger
}

// NewTaskCompletedSubscriber creates a new TaskCompletedSubscriber. The
// cache is optional; when present it is invalidated so the leaderboard
// reflects the new counters.
func NewTaskCompletedSubscriber(
	userRepo domain.Repository,
	cache queries.LeaderboardCache,
	logger *slog.Logger,
) *TaskCompletedSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskCompletedSubscriber{
		userRepo: userRepo,
		cache:    cache,
		logger:   logger,
	}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *TaskCompletedSubscriber) EventTypes() []string {
	return []string{taskCompletedRoutingKey}
}

// Handle processes a task completion event.
func (s *TaskCompletedSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload taskCompletedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		s.logger.Error("malformed task completion payload",
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}

	// A single in-place update: two completions arriving together must both
	// land, which a read-modify-write through the aggregate would not give.
	if err := s.userRepo.ApplyCompletion(ctx, payload.UserID, payload.CompletedOn, payload.OnTime); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logger.Info("recorded task completion",
		"user_id", payload.UserID,
		"on_time", payload.OnTime,
	)
	return nil
}

// RatingSubmittedSubscriber drops the cached leaderboard when a new rating
// lands.
type RatingSubmittedSubscriber struct {
	cache  queries.LeaderboardCache
	logger *slog.Logger
}

// NewRatingSubmittedSubscriber creates a new RatingSubmittedSubscriber.
func NewRatingSubmittedSubscriber(cache queries.LeaderboardCache, logger *slog.Logger) *RatingSubmittedSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatingSubmittedSubscriber{cache: cache, logger: logger}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *RatingSubmittedSubscriber) EventTypes() []string {
	return []string{domain.RatingSubmittedRoutingKey}
}

// Handle processes a rating submission event.
func (s *RatingSubmittedSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

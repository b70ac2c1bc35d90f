package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// RatingGate authorizes a rating against the task the two users worked on:
// the rater must be the task's creator and the ratee one of its
// collaborators.
type RatingGate interface {
	AuthorizeRating(ctx context.Context, taskID, ratedBy, userID uuid.UUID) error
}

// SubmitRatingCommand records a creator's rating of a collaborator.
type SubmitRatingCommand struct {
	TaskID   uuid.UUID
	UserID   uuid.UUID
	RatedBy  uuid.UUID
	Score    int
	Feedback string
}

// SubmitRatingHandler handles the SubmitRatingCommand.
type SubmitRatingHandler struct {
	userRepo  domain.Repository
	gate      RatingGate
	uow       sharedApplication.UnitOfWork
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewSubmitRatingHandler creates a new SubmitRatingHandler.
func NewSubmitRatingHandler(
	userRepo domain.Repository,
	gate RatingGate,
	uow sharedApplication.UnitOfWork,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *SubmitRatingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitRatingHandler{
		userRepo:  userRepo,
		gate:      gate,
		uow:       uow,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the SubmitRatingCommand.
func (h *SubmitRatingHandler) Handle(ctx context.Context, cmd SubmitRatingCommand) error {
	rating, err := domain.NewRating(cmd.UserID, cmd.RatedBy, cmd.Score, cmd.Feedback)
	if err != nil {
		return err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.gate.AuthorizeRating(txCtx, cmd.TaskID, cmd.RatedBy, cmd.UserID); err != nil {
			return err
		}
		if _, err := h.userRepo.FindByID(txCtx, cmd.UserID); err != nil {
			return err
		}
		return h.userRepo.AddRating(txCtx, rating)
	})
	if err != nil {
		return err
	}

	h.publish(ctx, domain.NewRatingSubmitted(cmd.UserID, cmd.RatedBy, cmd.Score))
	return nil
}

func (h *SubmitRatingHandler) publish(ctx context.Context, event *domain.RatingSubmitted) {
	if h.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal rating event", "error", err)
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
		h.logger.Error("failed to marshal rating event envelope", "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, event.RoutingKey(), body); err != nil {
		h.logger.Error("failed to publish rating event",
			"routing_key", event.RoutingKey(),
			"error", err,
		)
	}
}

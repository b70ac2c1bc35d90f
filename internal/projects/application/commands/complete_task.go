package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// MarkCompleteCommand records that a collaborator finished their part of a
// task.
type MarkCompleteCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// MarkCompleteResult reports what the completion changed. NewCompletion is
// false when the collaborator had already completed; the call is still a
// success. Finalized is true when this completion was the last outstanding
// one and the task transitioned to completed.
type MarkCompleteResult struct {
	NewCompletion  bool
	Finalized      bool
	CompletedCount int
	Collaborators  int
}

// MarkCompleteHandler handles the MarkCompleteCommand.
type MarkCompleteHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
	publisher   eventbus.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewMarkCompleteHandler creates a new MarkCompleteHandler.
func NewMarkCompleteHandler(
	projectRepo domain.Repository,
	uow sharedApplication.UnitOfWork,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *MarkCompleteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarkCompleteHandler{
		projectRepo: projectRepo,
		uow:         uow,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the MarkCompleteCommand.
func (h *MarkCompleteHandler) Handle(ctx context.Context, cmd MarkCompleteCommand) (*MarkCompleteResult, error) {
	var (
		result    *MarkCompleteResult
		completed *domain.TaskCompleted
		finalized *domain.TaskFinalized
	)

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, err := h.projectRepo.FindByTaskID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		task := project.FindTask(cmd.TaskID)
		if task == nil {
			return domain.ErrTaskNotFound
		}
		if !task.IsCollaborator(cmd.UserID) {
			return domain.ErrNotCollaborator
		}

		now := h.now()
		wasCompleted := task.Status().IsTerminal()

		// The completions table has a primary key on (task, user); inserting
		// is what makes concurrent duplicate completions collapse to one.
		newCompletion, err := h.projectRepo.InsertCompletion(txCtx, cmd.TaskID, cmd.UserID, now)
		if err != nil {
			return err
		}

		if newCompletion {
			if _, err := task.MarkComplete(cmd.UserID, now); err != nil {
				return err
			}
			onTime := !now.After(task.Deadline())
			completed = domain.NewTaskCompleted(project.ID(), task.ID(), cmd.UserID, now, onTime)

			if !wasCompleted && task.Status().IsTerminal() {
				if err := h.projectRepo.MarkTaskCompleted(txCtx, cmd.TaskID, now); err != nil {
					return err
				}
				finalized = domain.NewTaskFinalized(project.ID(), task.ID(), cmd.UserID, now)
			}
		}

		count := 0
		for _, entry := range task.Completions() {
			if entry.Completed {
				count++
			}
		}

		result = &MarkCompleteResult{
			NewCompletion:  newCompletion,
			Finalized:      finalized != nil,
			CompletedCount: count,
			Collaborators:  len(task.Collaborators()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed != nil {
		publishEvent(ctx, h.publisher, h.logger, completed)
	}
	if finalized != nil {
		publishEvent(ctx, h.publisher, h.logger, finalized)
	}

	return result, nil
}

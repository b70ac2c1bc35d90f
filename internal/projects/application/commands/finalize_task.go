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

// FinalizeTaskCommand closes a task by creator decision, regardless of how
// many collaborators have completed. Finalizing an already-completed task is
// a no-op.
type FinalizeTaskCommand struct {
	TaskID      uuid.UUID
	FinalizedBy uuid.UUID
}

// FinalizeTaskHandler handles the FinalizeTaskCommand.
type FinalizeTaskHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
	publisher   eventbus.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewFinalizeTaskHandler creates a new FinalizeTaskHandler.
func NewFinalizeTaskHandler(
	projectRepo domain.Repository,
	uow sharedApplication.UnitOfWork,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *FinalizeTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FinalizeTaskHandler{
		projectRepo: projectRepo,
		uow:         uow,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the FinalizeTaskCommand.
func (h *FinalizeTaskHandler) Handle(ctx context.Context, cmd FinalizeTaskCommand) error {
	var finalized *domain.TaskFinalized

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, err := h.projectRepo.FindByTaskID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		if !project.IsCreator(cmd.FinalizedBy) {
			return domain.ErrNotCreator
		}

		task := project.FindTask(cmd.TaskID)
		if task == nil {
			return domain.ErrTaskNotFound
		}
		if task.Status().IsTerminal() {
			return nil
		}

		now := h.now()
		task.Finalize(now)
		if err := h.projectRepo.MarkTaskCompleted(txCtx, cmd.TaskID, now); err != nil {
			return err
		}

		finalized = domain.NewTaskFinalized(project.ID(), task.ID(), cmd.FinalizedBy, now)
		return nil
	})
	if err != nil {
		return err
	}

	if finalized != nil {
		publishEvent(ctx, h.publisher, h.logger, finalized)
	}
	return nil
}

package commands

import (
	"context"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/google/uuid"
)

// ApplyToTaskCommand registers a user's application on a task.
type ApplyToTaskCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
}

// ApplyToTaskHandler handles the ApplyToTaskCommand.
type ApplyToTaskHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
}

// NewApplyToTaskHandler creates a new ApplyToTaskHandler.
func NewApplyToTaskHandler(
	projectRepo domain.Repository,
	uow sharedApplication.UnitOfWork,
) *ApplyToTaskHandler {
	return &ApplyToTaskHandler{
		projectRepo: projectRepo,
		uow:         uow,
	}
}

// Handle executes the ApplyToTaskCommand.
func (h *ApplyToTaskHandler) Handle(ctx context.Context, cmd ApplyToTaskCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, err := h.projectRepo.FindByTaskID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		if project.IsCreator(cmd.UserID) {
			return domain.ErrCreatorCannotApply
		}

		task := project.FindTask(cmd.TaskID)
		if task == nil {
			return domain.ErrTaskNotFound
		}
		if err := task.Apply(cmd.UserID); err != nil {
			return err
		}

		return h.projectRepo.AddApplicant(txCtx, cmd.TaskID, cmd.UserID)
	})
}

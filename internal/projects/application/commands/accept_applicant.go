package commands

import (
	"context"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/google/uuid"
)

// AcceptApplicantCommand promotes an applicant to collaborator. Only the
// project creator may accept.
type AcceptApplicantCommand struct {
	TaskID      uuid.UUID
	ApplicantID uuid.UUID
	AcceptedBy  uuid.UUID
}

// AcceptApplicantHandler handles the AcceptApplicantCommand.
type AcceptApplicantHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
}

// NewAcceptApplicantHandler creates a new AcceptApplicantHandler.
func NewAcceptApplicantHandler(
	projectRepo domain.Repository,
	uow sharedApplication.UnitOfWork,
) *AcceptApplicantHandler {
	return &AcceptApplicantHandler{
		projectRepo: projectRepo,
		uow:         uow,
	}
}

// Handle executes the AcceptApplicantCommand.
func (h *AcceptApplicantHandler) Handle(ctx context.Context, cmd AcceptApplicantCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, err := h.projectRepo.FindByTaskID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		if !project.IsCreator(cmd.AcceptedBy) {
			return domain.ErrNotCreator
		}

		task := project.FindTask(cmd.TaskID)
		if task == nil {
			return domain.ErrTaskNotFound
		}
		if err := task.AcceptApplicant(cmd.ApplicantID); err != nil {
			return err
		}

		return h.projectRepo.PromoteApplicant(txCtx, cmd.TaskID, cmd.ApplicantID)
	})
}

package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/google/uuid"
)

// CreateProjectCommand contains the data needed to post a project.
type CreateProjectCommand struct {
	CreatedBy   uuid.UUID
	Title       string
	Description string
	Budget      int64
	Role        string
	Skills      []string
	Deadline    time.Time
}

// CreateProjectResult contains the result of posting a project.
type CreateProjectResult struct {
	ProjectID uuid.UUID
	TaskID    uuid.UUID
}

// CreateProjectHandler handles the CreateProjectCommand.
type CreateProjectHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
}

// NewCreateProjectHandler creates a new CreateProjectHandler.
func NewCreateProjectHandler(
	projectRepo domain.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateProjectHandler {
	return &CreateProjectHandler{
		projectRepo: projectRepo,
		uow:         uow,
	}
}

// Handle executes the CreateProjectCommand.
func (h *CreateProjectHandler) Handle(ctx context.Context, cmd CreateProjectCommand) (*CreateProjectResult, error) {
	var result *CreateProjectResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, err := domain.NewProject(
			cmd.CreatedBy,
			cmd.Title,
			cmd.Description,
			cmd.Budget,
			cmd.Role,
			cmd.Skills,
			cmd.Deadline,
		)
		if err != nil {
			return err
		}

		if err := h.projectRepo.Save(txCtx, project); err != nil {
			return err
		}

		result = &CreateProjectResult{
			ProjectID: project.ID(),
			TaskID:    project.Tasks()[0].ID(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

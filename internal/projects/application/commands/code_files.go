package commands

import (
	"context"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/google/uuid"
)

// canEditTask reports whether a user may touch a task's code files: the
// project creator and accepted collaborators only.
func canEditTask(project *domain.Project, task *domain.Task, userID uuid.UUID) bool {
	return project.IsCreator(userID) || task.IsCollaborator(userID)
}

// AddCodeFileCommand creates an empty code file on a task.
type AddCodeFileCommand struct {
	TaskID   uuid.UUID
	UserID   uuid.UUID
	FileName string
}

// AddCodeFileResult contains the created file.
type AddCodeFileResult struct {
	FileID   uuid.UUID
	FileName string
}

// AddCodeFileHandler handles the AddCodeFileCommand.
type AddCodeFileHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
}

// NewAddCodeFileHandler creates a new AddCodeFileHandler.
func NewAddCodeFileHandler(projectRepo domain.Repository, uow sharedApplication.UnitOfWork) *AddCodeFileHandler {
	return &AddCodeFileHandler{projectRepo: projectRepo, uow: uow}
}

// Handle executes the AddCodeFileCommand.
func (h *AddCodeFileHandler) Handle(ctx context.Context, cmd AddCodeFileCommand) (*AddCodeFileResult, error) {
	var result *AddCodeFileResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, task, err := loadTask(txCtx, h.projectRepo, cmd.TaskID)
		if err != nil {
			return err
		}
		if !canEditTask(project, task, cmd.UserID) {
			return domain.ErrNotCollaborator
		}

		file, err := task.AddCodeFile(cmd.FileName)
		if err != nil {
			return err
		}
		if err := h.projectRepo.AddCodeFile(txCtx, cmd.TaskID, file); err != nil {
			return err
		}

		result = &AddCodeFileResult{FileID: file.ID(), FileName: file.FileName()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateCodeFileCommand overwrites a code file's content. Concurrent edits
// are last write wins.
type UpdateCodeFileCommand struct {
	TaskID  uuid.UUID
	FileID  uuid.UUID
	UserID  uuid.UUID
	Content string
}

// UpdateCodeFileHandler handles the UpdateCodeFileCommand.
type UpdateCodeFileHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
}

// NewUpdateCodeFileHandler creates a new UpdateCodeFileHandler.
func NewUpdateCodeFileHandler(projectRepo domain.Repository, uow sharedApplication.UnitOfWork) *UpdateCodeFileHandler {
	return &UpdateCodeFileHandler{projectRepo: projectRepo, uow: uow}
}

// Handle executes the UpdateCodeFileCommand.
func (h *UpdateCodeFileHandler) Handle(ctx context.Context, cmd UpdateCodeFileCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, task, err := loadTask(txCtx, h.projectRepo, cmd.TaskID)
		if err != nil {
			return err
		}
		if !canEditTask(project, task, cmd.UserID) {
			return domain.ErrNotCollaborator
		}

		file := task.FindCodeFile(cmd.FileID)
		if file == nil {
			return domain.ErrCodeFileNotFound
		}
		file.SetContent(cmd.Content)

		return h.projectRepo.SaveCodeFileContent(txCtx, cmd.FileID, cmd.Content)
	})
}

// RenameCodeFileCommand renames a code file.
type RenameCodeFileCommand struct {
	TaskID  uuid.UUID
	FileID  uuid.UUID
	UserID  uuid.UUID
	NewName string
}

// RenameCodeFileHandler handles the RenameCodeFileCommand.
type RenameCodeFileHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
}

// NewRenameCodeFileHandler creates a new RenameCodeFileHandler.
func NewRenameCodeFileHandler(projectRepo domain.Repository, uow sharedApplication.UnitOfWork) *RenameCodeFileHandler {
	return &RenameCodeFileHandler{projectRepo: projectRepo, uow: uow}
}

// Handle executes the RenameCodeFileCommand.
func (h *RenameCodeFileHandler) Handle(ctx context.Context, cmd RenameCodeFileCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, task, err := loadTask(txCtx, h.projectRepo, cmd.TaskID)
		if err != nil {
			return err
		}
		if !canEditTask(project, task, cmd.UserID) {
			return domain.ErrNotCollaborator
		}

		file := task.FindCodeFile(cmd.FileID)
		if file == nil {
			return domain.ErrCodeFileNotFound
		}
		if err := file.Rename(cmd.NewName); err != nil {
			return err
		}

		return h.projectRepo.RenameCodeFile(txCtx, cmd.FileID, file.FileName())
	})
}

// DeleteCodeFileCommand removes a code file from a task.
type DeleteCodeFileCommand struct {
	TaskID uuid.UUID
	FileID uuid.UUID
	UserID uuid.UUID
}

// DeleteCodeFileHandler handles the DeleteCodeFileCommand.
type DeleteCodeFileHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
}

// NewDeleteCodeFileHandler creates a new DeleteCodeFileHandler.
func NewDeleteCodeFileHandler(projectRepo domain.Repository, uow sharedApplication.UnitOfWork) *DeleteCodeFileHandler {
	return &DeleteCodeFileHandler{projectRepo: projectRepo, uow: uow}
}

// Handle executes the DeleteCodeFileCommand.
func (h *DeleteCodeFileHandler) Handle(ctx context.Context, cmd DeleteCodeFileCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, task, err := loadTask(txCtx, h.projectRepo, cmd.TaskID)
		if err != nil {
			return err
		}
		if !canEditTask(project, task, cmd.UserID) {
			return domain.ErrNotCollaborator
		}

		if err := task.RemoveCodeFile(cmd.FileID); err != nil {
			return err
		}
		return h.projectRepo.DeleteCodeFile(txCtx, cmd.FileID)
	})
}

func loadTask(ctx context.Context, repo domain.Repository, taskID uuid.UUID) (*domain.Project, *domain.Task, error) {
	project, err := repo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	task := project.FindTask(taskID)
	if task == nil {
		return nil, nil, domain.ErrTaskNotFound
	}
	return project, task, nil
}

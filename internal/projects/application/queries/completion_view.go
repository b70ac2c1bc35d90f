package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	"github.com/google/uuid"
)

// CompletionEntryDTO is one collaborator's completion state.
type CompletionEntryDTO struct {
	UserID      uuid.UUID
	Completed   bool
	CompletedOn *time.Time
}

// CompletionViewDTO summarizes a task's progress toward completion.
type CompletionViewDTO struct {
	TaskID         uuid.UUID
	Status         string
	CompletedOn    *time.Time
	Collaborators  int
	CompletedCount int
	AllComplete    bool
	Entries        []CompletionEntryDTO
}

// GetCompletionViewQuery contains the parameters for the completion view.
type GetCompletionViewQuery struct {
	TaskID uuid.UUID
}

// GetCompletionViewHandler handles the GetCompletionViewQuery.
type GetCompletionViewHandler struct {
	projectRepo domain.Repository
}

// NewGetCompletionViewHandler creates a new GetCompletionViewHandler.
func NewGetCompletionViewHandler(projectRepo domain.Repository) *GetCompletionViewHandler {
	return &GetCompletionViewHandler{projectRepo: projectRepo}
}

// Handle executes the GetCompletionViewQuery.
func (h *GetCompletionViewHandler) Handle(ctx context.Context, query GetCompletionViewQuery) (*CompletionViewDTO, error) {
	project, err := h.projectRepo.FindByTaskID(ctx, query.TaskID)
	if err != nil {
		return nil, err
	}
	task := project.FindTask(query.TaskID)
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	entries := make([]CompletionEntryDTO, 0, len(task.Collaborators()))
	completed := 0
	for _, userID := range task.Collaborators() {
		entry := CompletionEntryDTO{UserID: userID}
		if c, ok := task.Completions()[userID]; ok && c.Completed {
			entry.Completed = true
			entry.CompletedOn = c.CompletedOn
			completed++
		}
		entries = append(entries, entry)
	}

	return &CompletionViewDTO{
		TaskID:         task.ID(),
		Status:         task.Status().String(),
		CompletedOn:    task.CompletedOn(),
		Collaborators:  len(task.Collaborators()),
		CompletedCount: completed,
		AllComplete:    task.AllCollaboratorsComplete(),
		Entries:        entries,
	}, nil
}

package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	"github.com/google/uuid"
)

// ProjectDTO is a data transfer object for projects.
type ProjectDTO struct {
	ID          uuid.UUID
	CreatedBy   uuid.UUID
	Title       string
	Description string
	Budget      int64
	Deadline    time.Time
	Tasks       []TaskDTO
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskDTO is a data transfer object for tasks.
type TaskDTO struct {
	ID            uuid.UUID
	Title         string
	Role          string
	Skills        []string
	Deadline      time.Time
	Status        string
	CompletedOn   *time.Time
	Applicants    []uuid.UUID
	Collaborators []uuid.UUID
	CodeFiles     []CodeFileDTO
}

// CodeFileDTO is a data transfer object for code files.
type CodeFileDTO struct {
	ID       uuid.UUID
	FileName string
	Content  string
}

// GetProjectQuery contains the parameters for getting a project.
type GetProjectQuery struct {
	ProjectID uuid.UUID
}

// GetProjectHandler handles the GetProjectQuery.
type GetProjectHandler struct {
	projectRepo domain.Repository
}

// NewGetProjectHandler creates a new GetProjectHandler.
func NewGetProjectHandler(projectRepo domain.Repository) *GetProjectHandler {
	return &GetProjectHandler{projectRepo: projectRepo}
}

// Handle executes the GetProjectQuery.
func (h *GetProjectHandler) Handle(ctx context.Context, query GetProjectQuery) (*ProjectDTO, error) {
	project, err := h.projectRepo.FindByID(ctx, query.ProjectID)
	if err != nil {
		return nil, err
	}
	return toProjectDTO(project), nil
}

func toProjectDTO(project *domain.Project) *ProjectDTO {
	tasks := make([]TaskDTO, len(project.Tasks()))
	for i, t := range project.Tasks() {
		tasks[i] = toTaskDTO(t)
	}

	return &ProjectDTO{
		ID:          project.ID(),
		CreatedBy:   project.CreatedBy(),
		Title:       project.Title(),
		Description: project.Description(),
		Budget:      project.Budget(),
		Deadline:    project.Deadline(),
		Tasks:       tasks,
		CreatedAt:   project.CreatedAt(),
		UpdatedAt:   project.UpdatedAt(),
	}
}

func toTaskDTO(t *domain.Task) TaskDTO {
	files := make([]CodeFileDTO, len(t.CodeFiles()))
	for i, f := range t.CodeFiles() {
		files[i] = CodeFileDTO{ID: f.ID(), FileName: f.FileName(), Content: f.Content()}
	}

	return TaskDTO{
		ID:            t.ID(),
		Title:         t.Title(),
		Role:          t.Role(),
		Skills:        t.Skills(),
		Deadline:      t.Deadline(),
		Status:        t.Status().String(),
		CompletedOn:   t.CompletedOn(),
		Applicants:    t.Applicants(),
		Collaborators: t.Collaborators(),
		CodeFiles:     files,
	}
}

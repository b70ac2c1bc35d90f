// Package domain contains the project aggregate: projects, their tasks, the
// task completion state machine, and the shared code files edited inside a
// collaboration room.
package domain

import (
	"context"
	"time"

	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/google/uuid"
)

// Project is the aggregate root. A project is posted by a creator and carries
// one or more tasks that freelancers apply to.
type Project struct {
	sharedDomain.BaseEntity
	createdBy   uuid.UUID
	title       string
	description string
	budget      int64
	deadline    time.Time
	tasks       []*Task
}

// NewProject creates a project with a single initial task mirroring the
// project's title, role, and deadline.
func NewProject(createdBy uuid.UUID, title, description string, budget int64, role string, skills []string, deadline time.Time) (*Project, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	task, err := NewTask(title, role, skills, deadline)
	if err != nil {
		return nil, err
	}
	return &Project{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		createdBy:   createdBy,
		title:       title,
		description: description,
		budget:      budget,
		deadline:    deadline,
		tasks:       []*Task{task},
	}, nil
}

func (p *Project) CreatedBy() uuid.UUID { return p.createdBy }
func (p *Project) Title() string        { return p.title }
func (p *Project) Description() string  { return p.description }
func (p *Project) Budget() int64        { return p.budget }
func (p *Project) Deadline() time.Time  { return p.deadline }
func (p *Project) Tasks() []*Task       { return p.tasks }

// IsCreator reports whether the user posted this project.
func (p *Project) IsCreator(userID uuid.UUID) bool {
	return p.createdBy == userID
}

// AddTask appends a task to the project.
func (p *Project) AddTask(task *Task) {
	p.tasks = append(p.tasks, task)
	p.Touch()
}

// FindTask finds a task by ID, or nil.
func (p *Project) FindTask(taskID uuid.UUID) *Task {
	for _, t := range p.tasks {
		if t.ID() == taskID {
			return t
		}
	}
	return nil
}

// RehydrateProject recreates a project from persisted state.
func RehydrateProject(
	id, createdBy uuid.UUID,
	title, description string,
	budget int64,
	deadline time.Time,
	tasks []*Task,
	createdAt, updatedAt time.Time,
) *Project {
	return &Project{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		createdBy:   createdBy,
		title:       title,
		description: description,
		budget:      budget,
		deadline:    deadline,
		tasks:       tasks,
	}
}

// CollaboratorTaskStats aggregates a collaborator's task record across all
// projects, used for the on-time completion rate.
type CollaboratorTaskStats struct {
	Total    int
	OnTime   int
	Overdue  int
	Pending  int
	Finished int
	// CompletedRoles holds the role of each finished task, for skill
	// breakdowns on the profile page.
	CompletedRoles []string
}

// Repository persists projects. Membership and completion mutations are
// expressed as dedicated operations so the store can make them atomic
// without loading and rewriting the whole aggregate under concurrency.
type Repository interface {
	Save(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) (*Project, error)
	FindByCreator(ctx context.Context, createdBy uuid.UUID) ([]*Project, error)
	FindAll(ctx context.Context) ([]*Project, error)
	// FindPopular returns projects ordered by applicant count, descending.
	FindPopular(ctx context.Context, limit int) ([]*Project, error)

	AddApplicant(ctx context.Context, taskID, userID uuid.UUID) error
	PromoteApplicant(ctx context.Context, taskID, userID uuid.UUID) error
	// InsertCompletion records a collaborator completion and reports whether
	// the row was newly inserted. Duplicate completions return false, nil.
	InsertCompletion(ctx context.Context, taskID, userID uuid.UUID, completedOn time.Time) (bool, error)
	MarkTaskCompleted(ctx context.Context, taskID uuid.UUID, completedOn time.Time) error

	AddCodeFile(ctx context.Context, taskID uuid.UUID, file *CodeFile) error
	SaveCodeFileContent(ctx context.Context, fileID uuid.UUID, content string) error
	RenameCodeFile(ctx context.Context, fileID uuid.UUID, newName string) error
	DeleteCodeFile(ctx context.Context, fileID uuid.UUID) error

	CollaboratorTaskStats(ctx context.Context, userID uuid.UUID, now time.Time) (CollaboratorTaskStats, error)
}

package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/google/uuid"
)

// Routing keys for project domain events.
const (
	TaskCompletedRoutingKey = "projects.task.completed"
	TaskFinalizedRoutingKey = "projects.task.finalized"
)

// TaskCompleted is published when a collaborator's completion is recorded
// for the first time. Duplicate completion attempts never emit this event.
type TaskCompleted struct {
	sharedDomain.BaseEvent
	TaskID      uuid.UUID `json:"task_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	UserID      uuid.UUID `json:"user_id"`
	CompletedOn time.Time `json:"completed_on"`
	OnTime      bool      `json:"on_time"`
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(projectID, taskID, userID uuid.UUID, completedOn time.Time, onTime bool) *TaskCompleted {
	return &TaskCompleted{
		BaseEvent:   sharedDomain.NewBaseEvent(taskID, "task", TaskCompletedRoutingKey),
		TaskID:      taskID,
		ProjectID:   projectID,
		UserID:      userID,
		CompletedOn: completedOn,
		OnTime:      onTime,
	}
}

// TaskFinalized is published when a task reaches its terminal completed
// state, whether through the final collaborator completion or a creator
// finalize.
type TaskFinalized struct {
	sharedDomain.BaseEvent
	TaskID      uuid.UUID `json:"task_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	FinalizedBy uuid.UUID `json:"finalized_by"`
	CompletedOn time.Time `json:"completed_on"`
}

// NewTaskFinalized creates a TaskFinalized event.
func NewTaskFinalized(projectID, taskID, finalizedBy uuid.UUID, completedOn time.Time) *TaskFinalized {
	return &TaskFinalized{
		BaseEvent:   sharedDomain.NewBaseEvent(taskID, "task", TaskFinalizedRoutingKey),
		TaskID:      taskID,
		ProjectID:   projectID,
		FinalizedBy: finalizedBy,
		CompletedOn: completedOn,
	}
}

package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/google/uuid"
)

// CompletionEntry records whether a collaborator finished their part of a
// task. Once completed it is never reverted through the exposed protocol.
type CompletionEntry struct {
	UserID      uuid.UUID
	Completed   bool
	CompletedOn *time.Time
}

// Task is a unit of work inside a project. Users apply to it, get accepted
// as collaborators, co-edit its code files, and mark their part complete.
type Task struct {
	sharedDomain.BaseEntity
	title         string
	role          string
	skills        []string
	deadline      time.Time
	status        Status
	completedOn   *time.Time
	codeFiles     []*CodeFile
	applicants    []uuid.UUID
	collaborators []uuid.UUID
	completions   map[uuid.UUID]CompletionEntry
}

// NewTask creates a pending task.
func NewTask(title, role string, skills []string, deadline time.Time) (*Task, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return &Task{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		title:       title,
		role:        role,
		skills:      skills,
		deadline:    deadline,
		status:      StatusPending,
		completions: make(map[uuid.UUID]CompletionEntry),
	}, nil
}

func (t *Task) Title() string              { return t.title }
func (t *Task) Role() string               { return t.role }
func (t *Task) Skills() []string           { return t.skills }
func (t *Task) Deadline() time.Time        { return t.deadline }
func (t *Task) Status() Status             { return t.status }
func (t *Task) CompletedOn() *time.Time    { return t.completedOn }
func (t *Task) CodeFiles() []*CodeFile     { return t.codeFiles }
func (t *Task) Applicants() []uuid.UUID    { return t.applicants }
func (t *Task) Collaborators() []uuid.UUID { return t.collaborators }

// Completions returns the per-collaborator completion entries.
func (t *Task) Completions() map[uuid.UUID]CompletionEntry {
	return t.completions
}

// IsApplicant returns true if the user has an open application on the task.
func (t *Task) IsApplicant(userID uuid.UUID) bool {
	for _, id := range t.applicants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsCollaborator returns true if the user was accepted onto the task.
func (t *Task) IsCollaborator(userID uuid.UUID) bool {
	for _, id := range t.collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// Apply adds the user to the applicant set. A user is never simultaneously
// an applicant and a collaborator.
func (t *Task) Apply(userID uuid.UUID) error {
	if t.IsCollaborator(userID) {
		return ErrAlreadyCollaborator
	}
	if t.IsApplicant(userID) {
		return ErrAlreadyApplied
	}
	t.applicants = append(t.applicants, userID)
	t.Touch()
	return nil
}

// AcceptApplicant promotes an applicant to collaborator.
func (t *Task) AcceptApplicant(userID uuid.UUID) error {
	if !t.IsApplicant(userID) {
		return ErrNotApplicant
	}
	for i, id := range t.applicants {
		if id == userID {
			t.applicants = append(t.applicants[:i], t.applicants[i+1:]...)
			break
		}
	}
	t.collaborators = append(t.collaborators, userID)
	t.Touch()
	return nil
}

// MarkComplete records a collaborator's completion. It is idempotent:
// marking an already-completed collaborator again reports no new completion
// and is not an error. When every collaborator has completed, the task
// auto-finalizes. Returns true only on the first completion for the user.
func (t *Task) MarkComplete(userID uuid.UUID, now time.Time) (bool, error) {
	if !t.IsCollaborator(userID) {
		return false, ErrNotCollaborator
	}

	if entry, ok := t.completions[userID]; ok && entry.Completed {
		return false, nil
	}

	completedOn := now
	t.completions[userID] = CompletionEntry{
		UserID:      userID,
		Completed:   true,
		CompletedOn: &completedOn,
	}
	t.Touch()

	if t.AllCollaboratorsComplete() {
		t.Finalize(now)
	}
	return true, nil
}

// AllCollaboratorsComplete reports whether every collaborator has a completed
// entry. A task with no collaborators is never trivially complete; creator
// finalization is the only completion path for such tasks.
func (t *Task) AllCollaboratorsComplete() bool {
	if len(t.collaborators) == 0 {
		return false
	}
	for _, id := range t.collaborators {
		entry, ok := t.completions[id]
		if !ok || !entry.Completed {
			return false
		}
	}
	return true
}

// Finalize transitions the task to completed. Completed is terminal, so
// finalizing an already-completed task keeps the original completion time.
func (t *Task) Finalize(now time.Time) {
	if t.status.IsTerminal() {
		return
	}
	t.status = StatusCompleted
	completedOn := now
	t.completedOn = &completedOn
	t.Touch()
}

// CompletedOnTime reports whether the task was finalized on or before its
// deadline.
func (t *Task) CompletedOnTime() bool {
	return t.status == StatusCompleted &&
		t.completedOn != nil &&
		!t.completedOn.After(t.deadline)
}

// AddCodeFile creates an empty code file on the task.
func (t *Task) AddCodeFile(fileName string) (*CodeFile, error) {
	file, err := NewCodeFile(t.ID(), fileName)
	if err != nil {
		return nil, err
	}
	t.codeFiles = append(t.codeFiles, file)
	t.Touch()
	return file, nil
}

// FindCodeFile finds a code file by ID.
func (t *Task) FindCodeFile(fileID uuid.UUID) *CodeFile {
	for _, f := range t.codeFiles {
		if f.ID() == fileID {
			return f
		}
	}
	return nil
}

// RemoveCodeFile deletes a code file from the task.
func (t *Task) RemoveCodeFile(fileID uuid.UUID) error {
	for i, f := range t.codeFiles {
		if f.ID() == fileID {
			t.codeFiles = append(t.codeFiles[:i], t.codeFiles[i+1:]...)
			t.Touch()
			return nil
		}
	}
	return ErrCodeFileNotFound
}

// RehydrateTask recreates a task from persisted state.
func RehydrateTask(
	id uuid.UUID,
	title, role string,
	skills []string,
	deadline time.Time,
	status Status,
	completedOn *time.Time,
	codeFiles []*CodeFile,
	applicants, collaborators []uuid.UUID,
	completions map[uuid.UUID]CompletionEntry,
	createdAt, updatedAt time.Time,
) *Task {
	if completions == nil {
		completions = make(map[uuid.UUID]CompletionEntry)
	}
	return &Task{
		BaseEntity:    sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		title:         title,
		role:          role,
		skills:        skills,
		deadline:      deadline,
		status:        status,
		completedOn:   completedOn,
		codeFiles:     codeFiles,
		applicants:    applicants,
		collaborators: collaborators,
		completions:   completions,
	}
}

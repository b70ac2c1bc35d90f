package domain

import "errors"

var (
	// ErrEmptyTitle is returned when a project or task title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrProjectNotFound is returned when a project does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrTaskNotFound is returned when a task does not exist in the project.
	ErrTaskNotFound = errors.New("task not found")

	// ErrCodeFileNotFound is returned when a code file does not exist in the task.
	ErrCodeFileNotFound = errors.New("code file not found")

	// ErrInvalidFileName is returned when a code file name is empty or has no
	// extension. The extension is required for language detection.
	ErrInvalidFileName = errors.New("file name must be non-empty and include an extension")

	// ErrNotCreator is returned when an operation reserved for the project
	// creator is attempted by someone else.
	ErrNotCreator = errors.New("only the project creator may perform this operation")

	// ErrNotCollaborator is returned when a completion is marked by a user who
	// is not a collaborator on the task.
	ErrNotCollaborator = errors.New("user is not a collaborator on this task")

	// ErrNotApplicant is returned when accepting a user who never applied.
	ErrNotApplicant = errors.New("user is not an applicant on this task")

	// ErrAlreadyApplied is returned on a duplicate application.
	ErrAlreadyApplied = errors.New("user already applied to this task")

	// ErrAlreadyCollaborator is returned when an applicant is already a
	// collaborator. Applicant and collaborator sets are disjoint.
	ErrAlreadyCollaborator = errors.New("user is already a collaborator on this task")

	// ErrCreatorCannotApply is returned when the project creator applies to
	// one of their own tasks.
	ErrCreatorCannotApply = errors.New("project creator cannot apply to their own task")
)

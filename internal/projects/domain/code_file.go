package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/google/uuid"
)

// CodeFile is a source file owned exclusively by its task.
// There is no versioning: content saves are last-write-wins.
type CodeFile struct {
	sharedDomain.BaseEntity
	taskID   uuid.UUID
	fileName string
	content  string
}

// NewCodeFile creates an empty code file for a task.
// The file name must contain an extension for language detection.
func NewCodeFile(taskID uuid.UUID, fileName string) (*CodeFile, error) {
	if !validFileName(fileName) {
		return nil, ErrInvalidFileName
	}
	return &CodeFile{
		BaseEntity: sharedDomain.NewBaseEntity(),
		taskID:     taskID,
		fileName:   fileName,
		content:    "",
	}, nil
}

func (f *CodeFile) TaskID() uuid.UUID { return f.taskID }
func (f *CodeFile) FileName() string  { return f.fileName }
func (f *CodeFile) Content() string   { return f.content }

// Rename changes the file name, keeping the extension requirement.
func (f *CodeFile) Rename(newName string) error {
	if !validFileName(newName) {
		return ErrInvalidFileName
	}
	f.fileName = newName
	f.Touch()
	return nil
}

// SetContent replaces the file content. Last write wins.
func (f *CodeFile) SetContent(content string) {
	f.content = content
	f.Touch()
}

// Extension returns the file extension without the leading dot.
func (f *CodeFile) Extension() string {
	idx := strings.LastIndex(f.fileName, ".")
	if idx < 0 || idx == len(f.fileName)-1 {
		return ""
	}
	return strings.ToLower(f.fileName[idx+1:])
}

func validFileName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	idx := strings.LastIndex(name, ".")
	// A leading dot (".env") is a hidden file, not an extension.
	return idx > 0 && idx < len(name)-1
}

// RehydrateCodeFile recreates a code file from persisted state.
func RehydrateCodeFile(id, taskID uuid.UUID, fileName, content string, createdAt, updatedAt time.Time) *CodeFile {
	return &CodeFile{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		taskID:     taskID,
		fileName:   fileName,
		content:    content,
	}
}

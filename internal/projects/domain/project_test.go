package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	t.Run("creates project with initial task", func(t *testing.T) {
		creator := uuid.New()
		deadline := time.Now().Add(7 * 24 * time.Hour)

		project, err := NewProject(creator, "Marketplace MVP", "Storefront plus checkout", 2500, "fullstack", []string{"go", "react"}, deadline)

		require.NoError(t, err)
		assert.Equal(t, creator, project.CreatedBy())
		assert.True(t, project.IsCreator(creator))
		assert.False(t, project.IsCreator(uuid.New()))
		require.Len(t, project.Tasks(), 1)
		task := project.Tasks()[0]
		assert.Equal(t, "Marketplace MVP", task.Title())
		assert.Equal(t, StatusPending, task.Status())
		assert.Equal(t, deadline, task.Deadline())
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := NewProject(uuid.New(), "", "", 0, "", nil, time.Now())

		assert.ErrorIs(t, err, ErrEmptyTitle)
	})
}

func TestProjectFindTask(t *testing.T) {
	project, err := NewProject(uuid.New(), "Data pipeline", "", 1000, "backend", nil, time.Now().Add(time.Hour))
	require.NoError(t, err)
	taskID := project.Tasks()[0].ID()

	assert.NotNil(t, project.FindTask(taskID))
	assert.Nil(t, project.FindTask(uuid.New()))
}

func TestCodeFileNaming(t *testing.T) {
	taskID := uuid.New()

	t.Run("requires an extension", func(t *testing.T) {
		for _, name := range []string{"", "Makefile", ".env", "trailing."} {
			_, err := NewCodeFile(taskID, name)
			assert.ErrorIs(t, err, ErrInvalidFileName, "name %q", name)
		}
	})

	t.Run("rename validates like create", func(t *testing.T) {
		file, err := NewCodeFile(taskID, "index.js")
		require.NoError(t, err)

		assert.ErrorIs(t, file.Rename("nodots"), ErrInvalidFileName)
		require.NoError(t, file.Rename("index.ts"))
		assert.Equal(t, "index.ts", file.FileName())
		assert.Equal(t, "ts", file.Extension())
	})

	t.Run("set content is last write wins", func(t *testing.T) {
		file, err := NewCodeFile(taskID, "app.py")
		require.NoError(t, err)

		file.SetContent("print('a')")
		file.SetContent("print('b')")

		assert.Equal(t, "print('b')", file.Content())
	})
}

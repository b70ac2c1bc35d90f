package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}

func seedUser(t *testing.T, conn database.Connection, id uuid.UUID) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := conn.Exec(context.Background(),
		`INSERT INTO users (id, username, email, skills, created_at, updated_at) VALUES (?, ?, ?, '[]', ?, ?)`,
		id.String(), "user-"+id.String()[:8], id.String()[:8]+"@example.com", now, now,
	)
	require.NoError(t, err)
}

func seedProject(t *testing.T, conn database.Connection, repo *SQLiteProjectRepository, deadline time.Time) (*domain.Project, uuid.UUID) {
	t.Helper()
	creator := uuid.New()
	seedUser(t, conn, creator)

	project, err := domain.NewProject(creator, "Storefront", "Shop with checkout", 1500, "fullstack", []string{"go", "react"}, deadline)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), project))
	return project, creator
}

func TestSQLiteProjectRepository_SaveAndFind(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSQLiteProjectRepository(conn)
	ctx := context.Background()

	deadline := time.Now().UTC().Add(96 * time.Hour).Truncate(time.Second)
	project, creator := seedProject(t, conn, repo, deadline)
	taskID := project.Tasks()[0].ID()

	t.Run("round-trips the aggregate", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, project.ID())
		require.NoError(t, err)

		assert.Equal(t, project.ID(), loaded.ID())
		assert.Equal(t, creator, loaded.CreatedBy())
		assert.Equal(t, "Storefront", loaded.Title())
		assert.Equal(t, int64(1500), loaded.Budget())
		assert.True(t, deadline.Equal(loaded.Deadline()))

		require.Len(t, loaded.Tasks(), 1)
		task := loaded.Tasks()[0]
		assert.Equal(t, taskID, task.ID())
		assert.Equal(t, []string{"go", "react"}, task.Skills())
		assert.Equal(t, domain.StatusPending, task.Status())
	})

	t.Run("finds by task id", func(t *testing.T) {
		loaded, err := repo.FindByTaskID(ctx, taskID)
		require.NoError(t, err)
		assert.Equal(t, project.ID(), loaded.ID())
	})

	t.Run("missing project yields not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)

		_, err = repo.FindByTaskID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})
}

func TestSQLiteProjectRepository_Membership(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSQLiteProjectRepository(conn)
	ctx := context.Background()

	project, _ := seedProject(t, conn, repo, time.Now().UTC().Add(48*time.Hour))
	taskID := project.Tasks()[0].ID()

	applicant := uuid.New()
	seedUser(t, conn, applicant)

	require.NoError(t, repo.AddApplicant(ctx, taskID, applicant))
	// Duplicate applications collapse on the composite key.
	require.NoError(t, repo.AddApplicant(ctx, taskID, applicant))

	loaded, err := repo.FindByTaskID(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{applicant}, loaded.Tasks()[0].Applicants())

	require.NoError(t, repo.PromoteApplicant(ctx, taskID, applicant))

	loaded, err = repo.FindByTaskID(ctx, taskID)
	require.NoError(t, err)
	task := loaded.Tasks()[0]
	assert.Empty(t, task.Applicants())
	assert.Equal(t, []uuid.UUID{applicant}, task.Collaborators())
}

func TestSQLiteProjectRepository_Completions(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSQLiteProjectRepository(conn)
	ctx := context.Background()

	project, _ := seedProject(t, conn, repo, time.Now().UTC().Add(48*time.Hour))
	taskID := project.Tasks()[0].ID()

	collaborator := uuid.New()
	seedUser(t, conn, collaborator)
	require.NoError(t, repo.AddApplicant(ctx, taskID, collaborator))
	require.NoError(t, repo.PromoteApplicant(ctx, taskID, collaborator))

	now := time.Now().UTC().Truncate(time.Second)

	t.Run("first insert reports new", func(t *testing.T) {
		inserted, err := repo.InsertCompletion(ctx, taskID, collaborator, now)
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("duplicate insert reports existing", func(t *testing.T) {
		inserted, err := repo.InsertCompletion(ctx, taskID, collaborator, now.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, inserted)

		loaded, err := repo.FindByTaskID(ctx, taskID)
		require.NoError(t, err)
		entry := loaded.Tasks()[0].Completions()[collaborator]
		require.NotNil(t, entry.CompletedOn)
		assert.True(t, now.Equal(*entry.CompletedOn))
	})

	t.Run("mark completed is terminal", func(t *testing.T) {
		require.NoError(t, repo.MarkTaskCompleted(ctx, taskID, now))
		// A later finalization attempt must not move the completion time.
		require.NoError(t, repo.MarkTaskCompleted(ctx, taskID, now.Add(2*time.Hour)))

		loaded, err := repo.FindByTaskID(ctx, taskID)
		require.NoError(t, err)
		task := loaded.Tasks()[0]
		assert.Equal(t, domain.StatusCompleted, task.Status())
		require.NotNil(t, task.CompletedOn())
		assert.True(t, now.Equal(*task.CompletedOn()))
	})
}

func TestSQLiteProjectRepository_CodeFiles(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSQLiteProjectRepository(conn)
	ctx := context.Background()

	project, _ := seedProject(t, conn, repo, time.Now().UTC().Add(48*time.Hour))
	task := project.Tasks()[0]

	file, err := task.AddCodeFile("main.go")
	require.NoError(t, err)
	require.NoError(t, repo.AddCodeFile(ctx, task.ID(), file))

	require.NoError(t, repo.SaveCodeFileContent(ctx, file.ID(), "package main"))
	require.NoError(t, repo.RenameCodeFile(ctx, file.ID(), "cmd.go"))

	loaded, err := repo.FindByTaskID(ctx, task.ID())
	require.NoError(t, err)
	files := loaded.Tasks()[0].CodeFiles()
	require.Len(t, files, 1)
	assert.Equal(t, "cmd.go", files[0].FileName())
	assert.Equal(t, "package main", files[0].Content())

	require.NoError(t, repo.DeleteCodeFile(ctx, file.ID()))
	assert.ErrorIs(t, repo.DeleteCodeFile(ctx, file.ID()), domain.ErrCodeFileNotFound)
	assert.ErrorIs(t, repo.SaveCodeFileContent(ctx, file.ID(), "x"), domain.ErrCodeFileNotFound)
}

func TestSQLiteProjectRepository_CollaboratorTaskStats(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSQLiteProjectRepository(conn)
	ctx := context.Background()

	deadline := time.Now().UTC().Add(48 * time.Hour)
	collaborator := uuid.New()
	seedUser(t, conn, collaborator)

	finished, _ := seedProject(t, conn, repo, deadline)
	finishedTask := finished.Tasks()[0].ID()
	require.NoError(t, repo.AddApplicant(ctx, finishedTask, collaborator))
	require.NoError(t, repo.PromoteApplicant(ctx, finishedTask, collaborator))
	require.NoError(t, repo.MarkTaskCompleted(ctx, finishedTask, deadline.Add(-time.Hour)))

	pending, _ := seedProject(t, conn, repo, deadline)
	pendingTask := pending.Tasks()[0].ID()
	require.NoError(t, repo.AddApplicant(ctx, pendingTask, collaborator))
	require.NoError(t, repo.PromoteApplicant(ctx, pendingTask, collaborator))

	stats, err := repo.CollaboratorTaskStats(ctx, collaborator, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Finished)
	assert.Equal(t, 1, stats.OnTime)
	assert.Equal(t, 0, stats.Overdue)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, []string{"fullstack"}, stats.CompletedRoles)
}

func TestSQLiteProjectRepository_FindPopular(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSQLiteProjectRepository(conn)
	ctx := context.Background()

	deadline := time.Now().UTC().Add(48 * time.Hour)
	quiet, _ := seedProject(t, conn, repo, deadline)
	busy, _ := seedProject(t, conn, repo, deadline)
	busyTask := busy.Tasks()[0].ID()

	for i := 0; i < 3; i++ {
		applicant := uuid.New()
		seedUser(t, conn, applicant)
		require.NoError(t, repo.AddApplicant(ctx, busyTask, applicant))
	}

	popular, err := repo.FindPopular(ctx, 10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, busy.ID(), popular[0].ID())
	assert.Equal(t, quiet.ID(), popular[1].ID())
}

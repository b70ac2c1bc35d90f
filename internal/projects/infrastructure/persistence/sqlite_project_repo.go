package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteProjectRepository implements domain.Repository using SQLite.
// Timestamps are stored as RFC3339 text and UUIDs as their string form.
type SQLiteProjectRepository struct {
	conn database.Connection
}

// NewSQLiteProjectRepository creates a new SQLite project repository.
func NewSQLiteProjectRepository(conn database.Connection) *SQLiteProjectRepository {
	return &SQLiteProjectRepository{conn: conn}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Save persists a project and its tasks.
func (r *SQLiteProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	query := `
		INSERT INTO projects (id, created_by, title, description, budget, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			budget = excluded.budget,
			deadline = excluded.deadline,
			updated_at = excluded.updated_at
	`
	_, err := exec.Exec(ctx, query,
		project.ID().String(),
		project.CreatedBy().String(),
		project.Title(),
		project.Description(),
		project.Budget(),
		formatTime(project.Deadline()),
		formatTime(project.CreatedAt()),
		formatTime(project.UpdatedAt()),
	)
	if err != nil {
		return err
	}

	for _, task := range project.Tasks() {
		if err := r.saveTask(ctx, exec, project.ID(), task); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteProjectRepository) saveTask(ctx context.Context, exec database.Executor, projectID uuid.UUID, task *domain.Task) error {
	skills, err := json.Marshal(task.Skills())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, project_id, title, role, skills, deadline, status, completed_on, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			role = excluded.role,
			skills = excluded.skills,
			deadline = excluded.deadline,
			status = excluded.status,
			completed_on = excluded.completed_on,
			updated_at = excluded.updated_at
	`
	_, err = exec.Exec(ctx, query,
		task.ID().String(),
		projectID.String(),
		task.Title(),
		task.Role(),
		string(skills),
		formatTime(task.Deadline()),
		task.Status().String(),
		formatTimePtr(task.CompletedOn()),
		formatTime(task.CreatedAt()),
		formatTime(task.UpdatedAt()),
	)
	return err
}

// FindByID retrieves a project with its tasks, membership, and code files.
func (r *SQLiteProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	query := `
		SELECT id, created_by, title, description, budget, deadline, created_at, updated_at
		FROM projects
		WHERE id = ?
	`
	var (
		idStr, createdByStr             string
		title, description              string
		budget                          int64
		deadlineStr, createdStr, updStr string
	)
	err := exec.QueryRow(ctx, query, id.String()).Scan(
		&idStr, &createdByStr, &title, &description, &budget, &deadlineStr, &createdStr, &updStr,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}

	projectID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	createdBy, err := uuid.Parse(createdByStr)
	if err != nil {
		return nil, err
	}
	deadline, err := parseTime(deadlineStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(createdStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(updStr)
	if err != nil {
		return nil, err
	}

	tasks, err := r.loadTasks(ctx, exec, projectID)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateProject(projectID, createdBy, title, description, budget, deadline, tasks, createdAt, updatedAt), nil
}

// FindByTaskID retrieves the project owning the given task.
func (r *SQLiteProjectRepository) FindByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.Project, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var projectIDStr string
	err := exec.QueryRow(ctx, `SELECT project_id FROM tasks WHERE id = ?`, taskID.String()).Scan(&projectIDStr)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, projectID)
}

// FindByCreator retrieves all projects posted by a user, newest first.
func (r *SQLiteProjectRepository) FindByCreator(ctx context.Context, createdBy uuid.UUID) ([]*domain.Project, error) {
	return r.findIDs(ctx, `SELECT id FROM projects WHERE created_by = ? ORDER BY created_at DESC`, createdBy.String())
}

// FindAll retrieves every project, newest first.
func (r *SQLiteProjectRepository) FindAll(ctx context.Context) ([]*domain.Project, error) {
	return r.findIDs(ctx, `SELECT id FROM projects ORDER BY created_at DESC`)
}

// FindPopular retrieves projects ordered by applicant count.
func (r *SQLiteProjectRepository) FindPopular(ctx context.Context, limit int) ([]*domain.Project, error) {
	query := `
		SELECT p.id
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		LEFT JOIN task_applicants a ON a.task_id = t.id
		GROUP BY p.id
		ORDER BY COUNT(a.user_id) DESC, p.created_at DESC
		LIMIT ?
	`
	return r.findIDs(ctx, query, limit)
}

func (r *SQLiteProjectRepository) findIDs(ctx context.Context, query string, args ...any) ([]*domain.Project, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	projects := make([]*domain.Project, 0, len(ids))
	for _, id := range ids {
		project, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func (r *SQLiteProjectRepository) loadTasks(ctx context.Context, exec database.Executor, projectID uuid.UUID) ([]*domain.Task, error) {
	query := `
		SELECT id, title, role, skills, deadline, status, completed_on, created_at, updated_at
		FROM tasks
		WHERE project_id = ?
		ORDER BY created_at
	`
	rows, err := exec.Query(ctx, query, projectID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type taskRow struct {
		ID                     string
		Title, Role, Skills    string
		DeadlineStr, Status    string
		CompletedOn            sql.NullString
		CreatedStr, UpdatedStr string
	}

	var taskRows []taskRow
	for rows.Next() {
		var tr taskRow
		if err := rows.Scan(&tr.ID, &tr.Title, &tr.Role, &tr.Skills, &tr.DeadlineStr, &tr.Status, &tr.CompletedOn, &tr.CreatedStr, &tr.UpdatedStr); err != nil {
			return nil, err
		}
		taskRows = append(taskRows, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(taskRows))
	for _, tr := range taskRows {
		taskID, err := uuid.Parse(tr.ID)
		if err != nil {
			return nil, err
		}
		var skills []string
		if err := json.Unmarshal([]byte(tr.Skills), &skills); err != nil {
			return nil, err
		}
		deadline, err := parseTime(tr.DeadlineStr)
		if err != nil {
			return nil, err
		}
		completedOn, err := parseTimePtr(tr.CompletedOn)
		if err != nil {
			return nil, err
		}
		createdAt, err := parseTime(tr.CreatedStr)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(tr.UpdatedStr)
		if err != nil {
			return nil, err
		}

		applicants, err := r.loadMembers(ctx, exec, `SELECT user_id FROM task_applicants WHERE task_id = ? ORDER BY applied_at`, taskID)
		if err != nil {
			return nil, err
		}
		collaborators, err := r.loadMembers(ctx, exec, `SELECT user_id FROM task_collaborators WHERE task_id = ? ORDER BY accepted_at`, taskID)
		if err != nil {
			return nil, err
		}
		completions, err := r.loadCompletions(ctx, exec, taskID)
		if err != nil {
			return nil, err
		}
		files, err := r.loadCodeFiles(ctx, exec, taskID)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, domain.RehydrateTask(
			taskID, tr.Title, tr.Role, skills, deadline,
			domain.Status(tr.Status), completedOn,
			files, applicants, collaborators, completions,
			createdAt, updatedAt,
		))
	}
	return tasks, nil
}

func (r *SQLiteProjectRepository) loadMembers(ctx context.Context, exec database.Executor, query string, taskID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := exec.Query(ctx, query, taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (r *SQLiteProjectRepository) loadCompletions(ctx context.Context, exec database.Executor, taskID uuid.UUID) (map[uuid.UUID]domain.CompletionEntry, error) {
	rows, err := exec.Query(ctx, `SELECT user_id, completed_on FROM task_completions WHERE task_id = ?`, taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := make(map[uuid.UUID]domain.CompletionEntry)
	for rows.Next() {
		var userIDStr, completedStr string
		if err := rows.Scan(&userIDStr, &completedStr); err != nil {
			return nil, err
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return nil, err
		}
		completedOn, err := parseTime(completedStr)
		if err != nil {
			return nil, err
		}
		completions[userID] = domain.CompletionEntry{UserID: userID, Completed: true, CompletedOn: &completedOn}
	}
	return completions, rows.Err()
}

func (r *SQLiteProjectRepository) loadCodeFiles(ctx context.Context, exec database.Executor, taskID uuid.UUID) ([]*domain.CodeFile, error) {
	query := `
		SELECT id, file_name, content, created_at, updated_at
		FROM code_files
		WHERE task_id = ?
		ORDER BY created_at
	`
	rows, err := exec.Query(ctx, query, taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*domain.CodeFile
	for rows.Next() {
		var idStr, fileName, content, createdStr, updatedStr string
		if err := rows.Scan(&idStr, &fileName, &content, &createdStr, &updatedStr); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		createdAt, err := parseTime(createdStr)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(updatedStr)
		if err != nil {
			return nil, err
		}
		files = append(files, domain.RehydrateCodeFile(id, taskID, fileName, content, createdAt, updatedAt))
	}
	return files, rows.Err()
}

// AddApplicant records an application.
func (r *SQLiteProjectRepository) AddApplicant(ctx context.Context, taskID, userID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `INSERT OR IGNORE INTO task_applicants (task_id, user_id, applied_at) VALUES (?, ?, ?)`
	_, err := exec.Exec(ctx, query, taskID.String(), userID.String(), formatTime(time.Now()))
	return err
}

// PromoteApplicant moves a user from applicants to collaborators.
func (r *SQLiteProjectRepository) PromoteApplicant(ctx context.Context, taskID, userID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	if _, err := exec.Exec(ctx, `DELETE FROM task_applicants WHERE task_id = ? AND user_id = ?`, taskID.String(), userID.String()); err != nil {
		return err
	}
	query := `INSERT OR IGNORE INTO task_collaborators (task_id, user_id, accepted_at) VALUES (?, ?, ?)`
	_, err := exec.Exec(ctx, query, taskID.String(), userID.String(), formatTime(time.Now()))
	return err
}

// InsertCompletion records a completion and reports whether it was new.
func (r *SQLiteProjectRepository) InsertCompletion(ctx context.Context, taskID, userID uuid.UUID, completedOn time.Time) (bool, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `INSERT OR IGNORE INTO task_completions (task_id, user_id, completed_on) VALUES (?, ?, ?)`
	result, err := exec.Exec(ctx, query, taskID.String(), userID.String(), formatTime(completedOn))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkTaskCompleted transitions a task to completed.
func (r *SQLiteProjectRepository) MarkTaskCompleted(ctx context.Context, taskID uuid.UUID, completedOn time.Time) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		UPDATE tasks
		SET status = 'completed', completed_on = ?, updated_at = ?
		WHERE id = ? AND status <> 'completed'
	`
	_, err := exec.Exec(ctx, query, formatTime(completedOn), formatTime(time.Now()), taskID.String())
	return err
}

// AddCodeFile persists a new code file.
func (r *SQLiteProjectRepository) AddCodeFile(ctx context.Context, taskID uuid.UUID, file *domain.CodeFile) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `INSERT INTO code_files (id, task_id, file_name, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := exec.Exec(ctx, query,
		file.ID().String(),
		taskID.String(),
		file.FileName(),
		file.Content(),
		formatTime(file.CreatedAt()),
		formatTime(file.UpdatedAt()),
	)
	return err
}

// SaveCodeFileContent overwrites a file's content, last write wins.
func (r *SQLiteProjectRepository) SaveCodeFileContent(ctx context.Context, fileID uuid.UUID, content string) error {
	return r.updateCodeFile(ctx, `UPDATE code_files SET content = ?, updated_at = ? WHERE id = ?`, fileID, content)
}

// RenameCodeFile renames a file.
func (r *SQLiteProjectRepository) RenameCodeFile(ctx context.Context, fileID uuid.UUID, newName string) error {
	return r.updateCodeFile(ctx, `UPDATE code_files SET file_name = ?, updated_at = ? WHERE id = ?`, fileID, newName)
}

func (r *SQLiteProjectRepository) updateCodeFile(ctx context.Context, query string, fileID uuid.UUID, value string) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query, value, formatTime(time.Now()), fileID.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrCodeFileNotFound
	}
	return nil
}

// DeleteCodeFile removes a file.
func (r *SQLiteProjectRepository) DeleteCodeFile(ctx context.Context, fileID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM code_files WHERE id = ?`, fileID.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrCodeFileNotFound
	}
	return nil
}

// CollaboratorTaskStats aggregates a user's task record across projects.
func (r *SQLiteProjectRepository) CollaboratorTaskStats(ctx context.Context, userID uuid.UUID, now time.Time) (domain.CollaboratorTaskStats, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		SELECT t.role, t.status, t.deadline, t.completed_on
		FROM task_collaborators c
		JOIN tasks t ON t.id = c.task_id
		WHERE c.user_id = ?
	`
	rows, err := exec.Query(ctx, query, userID.String())
	if err != nil {
		return domain.CollaboratorTaskStats{}, err
	}
	defer rows.Close()

	var stats domain.CollaboratorTaskStats
	for rows.Next() {
		var (
			role, status, deadlineStr string
			completedStr              sql.NullString
		)
		if err := rows.Scan(&role, &status, &deadlineStr, &completedStr); err != nil {
			return domain.CollaboratorTaskStats{}, err
		}
		deadline, err := parseTime(deadlineStr)
		if err != nil {
			return domain.CollaboratorTaskStats{}, err
		}
		completedOn, err := parseTimePtr(completedStr)
		if err != nil {
			return domain.CollaboratorTaskStats{}, err
		}
		accumulateTaskStats(&stats, role, status, deadline, completedOn)
	}
	return stats, rows.Err()
}

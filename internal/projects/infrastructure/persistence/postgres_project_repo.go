// Package persistence implements the projects repository for PostgreSQL and
// SQLite. The two drivers get separate implementations: Postgres binds
// time.Time directly while SQLite stores RFC3339 text.
package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresProjectRepository implements domain.Repository using PostgreSQL.
type PostgresProjectRepository struct {
	conn database.Connection
}

// NewPostgresProjectRepository creates a new PostgreSQL project repository.
func NewPostgresProjectRepository(conn database.Connection) *PostgresProjectRepository {
	return &PostgresProjectRepository{conn: conn}
}

// Save persists a project and its tasks. Membership rows are untouched;
// those go through the dedicated operations.
func (r *PostgresProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	query := `
		INSERT INTO projects (id, created_by, title, description, budget, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			budget = EXCLUDED.budget,
			deadline = EXCLUDED.deadline,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		project.ID(),
		project.CreatedBy(),
		project.Title(),
		project.Description(),
		project.Budget(),
		project.Deadline(),
		project.CreatedAt(),
		project.UpdatedAt(),
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

func (r *PostgresProjectRepository) saveTask(ctx context.Context, exec database.Executor, projectID uuid.UUID, task *domain.Task) error {
	skills, err := json.Marshal(task.Skills())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, project_id, title, role, skills, deadline, status, completed_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			role = EXCLUDED.role,
			skills = EXCLUDED.skills,
			deadline = EXCLUDED.deadline,
			status = EXCLUDED.status,
			completed_on = EXCLUDED.completed_on,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		task.ID(),
		projectID,
		task.Title(),
		task.Role(),
		string(skills),
		task.Deadline(),
		task.Status().String(),
		task.CompletedOn(),
		task.CreatedAt(),
		task.UpdatedAt(),
	)
	return err
}

// FindByID retrieves a project with its tasks, membership, and code files.
func (r *PostgresProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	query := `
		SELECT id, created_by, title, description, budget, deadline, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	var (
		projectID, createdBy           uuid.UUID
		title, description             string
		budget                         int64
		deadline, createdAt, updatedAt time.Time
	)
	err := exec.QueryRow(ctx, query, id).Scan(
		&projectID, &createdBy, &title, &description, &budget, &deadline, &createdAt, &updatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}

	tasks, err := r.loadTasks(ctx, exec, projectID)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateProject(projectID, createdBy, title, description, budget, deadline, tasks, createdAt, updatedAt), nil
}

// FindByTaskID retrieves the project owning the given task.
func (r *PostgresProjectRepository) FindByTaskID(ctx context.Context, taskID uuid.UUID) (*domain.Project, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var projectID uuid.UUID
	err := exec.QueryRow(ctx, `SELECT project_id FROM tasks WHERE id = $1`, taskID).Scan(&projectID)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, projectID)
}

// FindByCreator retrieves all projects posted by a user, newest first.
func (r *PostgresProjectRepository) FindByCreator(ctx context.Context, createdBy uuid.UUID) ([]*domain.Project, error) {
	return r.findIDs(ctx, `SELECT id FROM projects WHERE created_by = $1 ORDER BY created_at DESC`, createdBy)
}

// FindAll retrieves every project, newest first.
func (r *PostgresProjectRepository) FindAll(ctx context.Context) ([]*domain.Project, error) {
	return r.findIDs(ctx, `SELECT id FROM projects ORDER BY created_at DESC`)
}

// FindPopular retrieves projects ordered by applicant count.
func (r *PostgresProjectRepository) FindPopular(ctx context.Context, limit int) ([]*domain.Project, error) {
	query := `
		SELECT p.id
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		LEFT JOIN task_applicants a ON a.task_id = t.id
		GROUP BY p.id
		ORDER BY COUNT(a.user_id) DESC, p.created_at DESC
		LIMIT $1
	`
	return r.findIDs(ctx, query, limit)
}

func (r *PostgresProjectRepository) findIDs(ctx context.Context, query string, args ...any) ([]*domain.Project, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
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

func (r *PostgresProjectRepository) loadTasks(ctx context.Context, exec database.Executor, projectID uuid.UUID) ([]*domain.Task, error) {
	query := `
		SELECT id, title, role, skills, deadline, status, completed_on, created_at, updated_at
		FROM tasks
		WHERE project_id = $1
		ORDER BY created_at
	`
	rows, err := exec.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type taskRow struct {
		ID                   uuid.UUID
		Title, Role, Skills  string
		Deadline             time.Time
		Status               string
		CompletedOn          *time.Time
		CreatedAt, UpdatedAt time.Time
	}

	var taskRows []taskRow
	for rows.Next() {
		var tr taskRow
		if err := rows.Scan(&tr.ID, &tr.Title, &tr.Role, &tr.Skills, &tr.Deadline, &tr.Status, &tr.CompletedOn, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, err
		}
		taskRows = append(taskRows, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(taskRows))
	for _, tr := range taskRows {
		var skills []string
		if err := json.Unmarshal([]byte(tr.Skills), &skills); err != nil {
			return nil, err
		}

		applicants, err := r.loadMembers(ctx, exec, `SELECT user_id FROM task_applicants WHERE task_id = $1 ORDER BY applied_at`, tr.ID)
		if err != nil {
			return nil, err
		}
		collaborators, err := r.loadMembers(ctx, exec, `SELECT user_id FROM task_collaborators WHERE task_id = $1 ORDER BY accepted_at`, tr.ID)
		if err != nil {
			return nil, err
		}
		completions, err := r.loadCompletions(ctx, exec, tr.ID)
		if err != nil {
			return nil, err
		}
		files, err := r.loadCodeFiles(ctx, exec, tr.ID)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, domain.RehydrateTask(
			tr.ID, tr.Title, tr.Role, skills, tr.Deadline,
			domain.Status(tr.Status), tr.CompletedOn,
			files, applicants, collaborators, completions,
			tr.CreatedAt, tr.UpdatedAt,
		))
	}
	return tasks, nil
}

func (r *PostgresProjectRepository) loadMembers(ctx context.Context, exec database.Executor, query string, taskID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := exec.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (r *PostgresProjectRepository) loadCompletions(ctx context.Context, exec database.Executor, taskID uuid.UUID) (map[uuid.UUID]domain.CompletionEntry, error) {
	rows, err := exec.Query(ctx, `SELECT user_id, completed_on FROM task_completions WHERE task_id = $1`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := make(map[uuid.UUID]domain.CompletionEntry)
	for rows.Next() {
		var (
			userID      uuid.UUID
			completedOn time.Time
		)
		if err := rows.Scan(&userID, &completedOn); err != nil {
			return nil, err
		}
		on := completedOn
		completions[userID] = domain.CompletionEntry{UserID: userID, Completed: true, CompletedOn: &on}
	}
	return completions, rows.Err()
}

func (r *PostgresProjectRepository) loadCodeFiles(ctx context.Context, exec database.Executor, taskID uuid.UUID) ([]*domain.CodeFile, error) {
	query := `
		SELECT id, file_name, content, created_at, updated_at
		FROM code_files
		WHERE task_id = $1
		ORDER BY created_at
	`
	rows, err := exec.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*domain.CodeFile
	for rows.Next() {
		var (
			id                   uuid.UUID
			fileName, content    string
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &fileName, &content, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		files = append(files, domain.RehydrateCodeFile(id, taskID, fileName, content, createdAt, updatedAt))
	}
	return files, rows.Err()
}

// AddApplicant records an application. Duplicate applications are absorbed
// by the composite primary key.
func (r *PostgresProjectRepository) AddApplicant(ctx context.Context, taskID, userID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO task_applicants (task_id, user_id, applied_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`
	_, err := exec.Exec(ctx, query, taskID, userID, time.Now().UTC())
	return err
}

// PromoteApplicant moves a user from applicants to collaborators.
func (r *PostgresProjectRepository) PromoteApplicant(ctx context.Context, taskID, userID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	if _, err := exec.Exec(ctx, `DELETE FROM task_applicants WHERE task_id = $1 AND user_id = $2`, taskID, userID); err != nil {
		return err
	}
	query := `
		INSERT INTO task_collaborators (task_id, user_id, accepted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`
	_, err := exec.Exec(ctx, query, taskID, userID, time.Now().UTC())
	return err
}

// InsertCompletion records a completion and reports whether it was new. The
// conflict target makes concurrent duplicates collapse to a single row.
func (r *PostgresProjectRepository) InsertCompletion(ctx context.Context, taskID, userID uuid.UUID, completedOn time.Time) (bool, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO task_completions (task_id, user_id, completed_on)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id, user_id) DO NOTHING
	`
	result, err := exec.Exec(ctx, query, taskID, userID, completedOn)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkTaskCompleted transitions a task to completed. The status guard keeps
// completed terminal even under racing finalizations.
func (r *PostgresProjectRepository) MarkTaskCompleted(ctx context.Context, taskID uuid.UUID, completedOn time.Time) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		UPDATE tasks
		SET status = 'completed', completed_on = $2, updated_at = $3
		WHERE id = $1 AND status <> 'completed'
	`
	_, err := exec.Exec(ctx, query, taskID, completedOn, time.Now().UTC())
	return err
}

// AddCodeFile persists a new code file.
func (r *PostgresProjectRepository) AddCodeFile(ctx context.Context, taskID uuid.UUID, file *domain.CodeFile) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO code_files (id, task_id, file_name, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := exec.Exec(ctx, query, file.ID(), taskID, file.FileName(), file.Content(), file.CreatedAt(), file.UpdatedAt())
	return err
}

// SaveCodeFileContent overwrites a file's content, last write wins.
func (r *PostgresProjectRepository) SaveCodeFileContent(ctx context.Context, fileID uuid.UUID, content string) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	return r.updateCodeFile(ctx, exec, `UPDATE code_files SET content = $2, updated_at = $3 WHERE id = $1`, fileID, content)
}

// RenameCodeFile renames a file.
func (r *PostgresProjectRepository) RenameCodeFile(ctx context.Context, fileID uuid.UUID, newName string) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	return r.updateCodeFile(ctx, exec, `UPDATE code_files SET file_name = $2, updated_at = $3 WHERE id = $1`, fileID, newName)
}

func (r *PostgresProjectRepository) updateCodeFile(ctx context.Context, exec database.Executor, query string, fileID uuid.UUID, value string) error {
	result, err := exec.Exec(ctx, query, fileID, value, time.Now().UTC())
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
func (r *PostgresProjectRepository) DeleteCodeFile(ctx context.Context, fileID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM code_files WHERE id = $1`, fileID)
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
func (r *PostgresProjectRepository) CollaboratorTaskStats(ctx context.Context, userID uuid.UUID, now time.Time) (domain.CollaboratorTaskStats, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		SELECT t.role, t.status, t.deadline, t.completed_on
		FROM task_collaborators c
		JOIN tasks t ON t.id = c.task_id
		WHERE c.user_id = $1
	`
	rows, err := exec.Query(ctx, query, userID)
	if err != nil {
		return domain.CollaboratorTaskStats{}, err
	}
	defer rows.Close()

	var stats domain.CollaboratorTaskStats
	for rows.Next() {
		var (
			role, status string
			deadline     time.Time
			completedOn  *time.Time
		)
		if err := rows.Scan(&role, &status, &deadline, &completedOn); err != nil {
			return domain.CollaboratorTaskStats{}, err
		}
		accumulateTaskStats(&stats, role, status, deadline, completedOn)
	}
	return stats, rows.Err()
}

// accumulateTaskStats folds one task row into the running totals. Shared by
// both driver implementations.
func accumulateTaskStats(stats *domain.CollaboratorTaskStats, role, status string, deadline time.Time, completedOn *time.Time) {
	stats.Total++
	if domain.Status(status).IsTerminal() {
		stats.Finished++
		stats.CompletedRoles = append(stats.CompletedRoles, role)
		if completedOn != nil && !completedOn.After(deadline) {
			stats.OnTime++
		} else {
			stats.Overdue++
		}
	} else {
		stats.Pending++
	}
}

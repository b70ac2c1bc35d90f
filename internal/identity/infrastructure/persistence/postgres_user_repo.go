// Package persistence implements the identity repository for PostgreSQL and
// SQLite.
package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresUserRepository implements domain.Repository using PostgreSQL.
type PostgresUserRepository struct {
	conn database.Connection
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(conn database.Connection) *PostgresUserRepository {
	return &PostgresUserRepository{conn: conn}
}

// Save persists a user to the database.
func (r *PostgresUserRepository) Save(ctx context.Context, user *domain.User) error {
	skills, err := json.Marshal(user.Skills())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, username, email, skills, completed_tasks, overdue_tasks, streak_days, last_task_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			skills = EXCLUDED.skills,
			completed_tasks = EXCLUDED.completed_tasks,
			overdue_tasks = EXCLUDED.overdue_tasks,
			streak_days = EXCLUDED.streak_days,
			last_task_date = EXCLUDED.last_task_date,
			updated_at = EXCLUDED.updated_at
	`
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, query,
		user.ID(),
		user.Username(),
		user.Email(),
		string(skills),
		user.CompletedTasks(),
		user.OverdueTasks(),
		user.StreakDays(),
		user.LastTaskDate(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	return err
}

// ApplyCompletion bumps the task counters and streak in one UPDATE, so two
// completions landing at the same time both count.
func (r *PostgresUserRepository) ApplyCompletion(ctx context.Context, userID uuid.UUID, completedOn time.Time, onTime bool) error {
	day := completedOn.UTC().Truncate(24 * time.Hour)
	overdue := 0
	if !onTime {
		overdue = 1
	}

	query := `
		UPDATE users SET
			completed_tasks = completed_tasks + 1,
			overdue_tasks = overdue_tasks + $2,
			streak_days = CASE
				WHEN last_task_date IS NULL THEN 1
				WHEN last_task_date = $3 THEN streak_days
				WHEN last_task_date = $4 THEN streak_days + 1
				ELSE 1
			END,
			last_task_date = $3,
			updated_at = $5
		WHERE id = $1
	`
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query, userID, overdue, day, day.Add(-24*time.Hour), time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

const pgUserColumns = `id, username, email, skills, completed_tasks, overdue_tasks, streak_days, last_task_date, created_at, updated_at`

// FindByID retrieves a user by their ID.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+pgUserColumns+` FROM users WHERE id = $1`, id)
	return scanPostgresUser(row)
}

// FindByUsername retrieves a user by their username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+pgUserColumns+` FROM users WHERE username = $1`, username)
	return scanPostgresUser(row)
}

// FindAll retrieves every user.
func (r *PostgresUserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `SELECT `+pgUserColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanPostgresUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanPostgresUser(row database.Row) (*domain.User, error) {
	var (
		id                   uuid.UUID
		username, email      string
		skillsJSON           string
		completed, overdue   int
		streak               int
		lastTaskDate         *time.Time
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &username, &email, &skillsJSON, &completed, &overdue, &streak, &lastTaskDate, &createdAt, &updatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var skills []string
	if err := json.Unmarshal([]byte(skillsJSON), &skills); err != nil {
		return nil, err
	}
	return domain.RehydrateUser(id, username, email, skills, completed, overdue, streak, lastTaskDate, createdAt, updatedAt), nil
}

// AddRating persists a rating.
func (r *PostgresUserRepository) AddRating(ctx context.Context, rating *domain.Rating) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO ratings (id, user_id, rated_by, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := exec.Exec(ctx, query,
		rating.ID(),
		rating.UserID(),
		rating.RatedBy(),
		rating.Score(),
		rating.Feedback(),
		rating.CreatedAt(),
	)
	return err
}

// RatingsFor retrieves all ratings received by a user, newest first.
func (r *PostgresUserRepository) RatingsFor(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		SELECT id, user_id, rated_by, score, feedback, created_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := exec.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		var (
			id, uid, ratedBy uuid.UUID
			score            int
			feedback         *string
			createdAt        time.Time
		)
		if err := rows.Scan(&id, &uid, &ratedBy, &score, &feedback, &createdAt); err != nil {
			return nil, err
		}
		fb := ""
		if feedback != nil {
			fb = *feedback
		}
		ratings = append(ratings, domain.RehydrateRating(id, uid, ratedBy, score, fb, createdAt))
	}
	return ratings, rows.Err()
}

// RatingSummaries returns count and raw average per rated user.
func (r *PostgresUserRepository) RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		SELECT user_id, COUNT(*), AVG(score)
		FROM ratings
		GROUP BY user_id
	`
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.RatingSummary
	for rows.Next() {
		var s domain.RatingSummary
		if err := rows.Scan(&s.UserID, &s.Count, &s.Average); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

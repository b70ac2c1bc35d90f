package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteUserRepository implements domain.Repository using SQLite. Timestamps
// are stored as RFC3339 text and UUIDs as their string form.
type SQLiteUserRepository struct {
	conn database.Connection
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(conn database.Connection) *SQLiteUserRepository {
	return &SQLiteUserRepository{conn: conn}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Save persists a user to the database.
func (r *SQLiteUserRepository) Save(ctx context.Context, user *domain.User) error {
	skills, err := json.Marshal(user.Skills())
	if err != nil {
		return err
	}

	var lastTaskDate any
	if d := user.LastTaskDate(); d != nil {
		lastTaskDate = formatTime(*d)
	}

	query := `
		INSERT INTO users (id, username, email, skills, completed_tasks, overdue_tasks, streak_days, last_task_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			skills = excluded.skills,
			completed_tasks = excluded.completed_tasks,
			overdue_tasks = excluded.overdue_tasks,
			streak_days = excluded.streak_days,
			last_task_date = excluded.last_task_date,
			updated_at = excluded.updated_at
	`
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, query,
		user.ID().String(),
		user.Username(),
		user.Email(),
		string(skills),
		user.CompletedTasks(),
		user.OverdueTasks(),
		user.StreakDays(),
		lastTaskDate,
		formatTime(user.CreatedAt()),
		formatTime(user.UpdatedAt()),
	)
	return err
}

// ApplyCompletion bumps the task counters and streak in one UPDATE, so two
// completions landing at the same time both count. Day boundaries compare as
// RFC3339 text, which is how last_task_date is stored.
func (r *SQLiteUserRepository) ApplyCompletion(ctx context.Context, userID uuid.UUID, completedOn time.Time, onTime bool) error {
	day := completedOn.UTC().Truncate(24 * time.Hour)
	overdue := 0
	if !onTime {
		overdue = 1
	}

	query := `
		UPDATE users SET
			completed_tasks = completed_tasks + 1,
			overdue_tasks = overdue_tasks + ?,
			streak_days = CASE
				WHEN last_task_date IS NULL THEN 1
				WHEN last_task_date = ? THEN streak_days
				WHEN last_task_date = ? THEN streak_days + 1
				ELSE 1
			END,
			last_task_date = ?,
			updated_at = ?
		WHERE id = ?
	`
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		overdue,
		formatTime(day),
		formatTime(day.Add(-24*time.Hour)),
		formatTime(day),
		formatTime(time.Now()),
		userID.String(),
	)
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

const sqliteUserColumns = `id, username, email, skills, completed_tasks, overdue_tasks, streak_days, last_task_date, created_at, updated_at`

// FindByID retrieves a user by their ID.
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id.String())
	return scanSQLiteUser(row)
}

// FindByUsername retrieves a user by their username.
func (r *SQLiteUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE username = ?`, username)
	return scanSQLiteUser(row)
}

// FindAll retrieves every user.
func (r *SQLiteUserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `SELECT `+sqliteUserColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanSQLiteUser(row database.Row) (*domain.User, error) {
	var (
		idStr, username, email string
		skillsJSON             string
		completed, overdue     int
		streak                 int
		lastTaskStr            sql.NullString
		createdStr, updatedStr string
	)
	err := row.Scan(&idStr, &username, &email, &skillsJSON, &completed, &overdue, &streak, &lastTaskStr, &createdStr, &updatedStr)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	var skills []string
	if err := json.Unmarshal([]byte(skillsJSON), &skills); err != nil {
		return nil, err
	}
	var lastTaskDate *time.Time
	if lastTaskStr.Valid {
		t, err := parseTime(lastTaskStr.String)
		if err != nil {
			return nil, err
		}
		lastTaskDate = &t
	}
	createdAt, err := parseTime(createdStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(updatedStr)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateUser(id, username, email, skills, completed, overdue, streak, lastTaskDate, createdAt, updatedAt), nil
}

// AddRating persists a rating.
func (r *SQLiteUserRepository) AddRating(ctx context.Context, rating *domain.Rating) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `INSERT INTO ratings (id, user_id, rated_by, score, feedback, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := exec.Exec(ctx, query,
		rating.ID().String(),
		rating.UserID().String(),
		rating.RatedBy().String(),
		rating.Score(),
		rating.Feedback(),
		formatTime(rating.CreatedAt()),
	)
	return err
}

// RatingsFor retrieves all ratings received by a user, newest first.
func (r *SQLiteUserRepository) RatingsFor(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		SELECT id, user_id, rated_by, score, feedback, created_at
		FROM ratings
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := exec.Query(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		var (
			idStr, uidStr, ratedByStr string
			score                     int
			feedback                  sql.NullString
			createdStr                string
		)
		if err := rows.Scan(&idStr, &uidStr, &ratedByStr, &score, &feedback, &createdStr); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		uid, err := uuid.Parse(uidStr)
		if err != nil {
			return nil, err
		}
		ratedBy, err := uuid.Parse(ratedByStr)
		if err != nil {
			return nil, err
		}
		createdAt, err := parseTime(createdStr)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, domain.RehydrateRating(id, uid, ratedBy, score, feedback.String, createdAt))
	}
	return ratings, rows.Err()
}

// RatingSummaries returns count and raw average per rated user.
func (r *SQLiteUserRepository) RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error) {
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
		var (
			uidStr  string
			count   int
			average float64
		)
		if err := rows.Scan(&uidStr, &count, &average); err != nil {
			return nil, err
		}
		uid, err := uuid.Parse(uidStr)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.RatingSummary{UserID: uid, Count: count, Average: average})
	}
	return summaries, rows.Err()
}

// Package domain contains the user profile aggregate: skills, task counters,
// activity streaks, and peer ratings with the weighted reputation score.
package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/google/uuid"
)

// User is a platform member: a project creator, a collaborator, or both.
type User struct {
	sharedDomain.BaseEntity
	username       string
	email          string
	skills         []string
	completedTasks int
	overdueTasks   int
	streakDays     int
	lastTaskDate   *time.Time
}

// NewUser creates a user profile.
func NewUser(username, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	return &User{
		BaseEntity: sharedDomain.NewBaseEntity(),
		username:   username,
		email:      email,
	}, nil
}

func (u *User) Username() string         { return u.username }
func (u *User) Email() string            { return u.email }
func (u *User) Skills() []string         { return u.skills }
func (u *User) CompletedTasks() int      { return u.completedTasks }
func (u *User) OverdueTasks() int        { return u.overdueTasks }
func (u *User) StreakDays() int          { return u.streakDays }
func (u *User) LastTaskDate() *time.Time { return u.lastTaskDate }

// AddSkill appends a skill to the profile. Matching is case-insensitive.
func (u *User) AddSkill(skill string) error {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return ErrEmptySkill
	}
	for _, s := range u.skills {
		if strings.EqualFold(s, skill) {
			return ErrDuplicateSkill
		}
	}
	u.skills = append(u.skills, skill)
	u.Touch()
	return nil
}

// RecordTaskCompletion bumps the completed-task counter and the activity
// streak. The streak counts consecutive calendar days with at least one
// completion: a second completion on the same day is a no-op for the streak,
// the day after extends it, and any gap resets it to one.
func (u *User) RecordTaskCompletion(completedOn time.Time, onTime bool) {
	u.completedTasks++
	if !onTime {
		u.overdueTasks++
	}

	day := completedOn.UTC().Truncate(24 * time.Hour)
	switch {
	case u.lastTaskDate == nil:
		u.streakDays = 1
	case day.Equal(u.lastTaskDate.UTC().Truncate(24 * time.Hour)):
		// Same day, streak unchanged.
	case day.Sub(u.lastTaskDate.UTC().Truncate(24*time.Hour)) == 24*time.Hour:
		u.streakDays++
	default:
		u.streakDays = 1
	}
	u.lastTaskDate = &day
	u.Touch()
}

// SkillDistribution counts how many completed tasks fall under each of the
// user's skills, given the roles of the tasks they finished.
func SkillDistribution(skills []string, completedRoles []string) map[string]int {
	dist := make(map[string]int, len(skills))
	for _, s := range skills {
		dist[s] = 0
	}
	for _, role := range completedRoles {
		for _, s := range skills {
			if strings.EqualFold(s, role) {
				dist[s]++
			}
		}
	}
	return dist
}

// RehydrateUser recreates a user from persisted state.
func RehydrateUser(
	id uuid.UUID,
	username, email string,
	skills []string,
	completedTasks, overdueTasks, streakDays int,
	lastTaskDate *time.Time,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		BaseEntity:     sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		username:       username,
		email:          email,
		skills:         skills,
		completedTasks: completedTasks,
		overdueTasks:   overdueTasks,
		streakDays:     streakDays,
		lastTaskDate:   lastTaskDate,
	}
}

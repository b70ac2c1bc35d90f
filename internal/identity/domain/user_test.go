package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user", func(t *testing.T) {
		user, err := NewUser("wren", "wren@example.com")
		require.NoError(t, err)
		assert.Equal(t, "wren", user.Username())
		assert.Zero(t, user.CompletedTasks())
		assert.Zero(t, user.StreakDays())
	})

	t.Run("rejects blank username", func(t *testing.T) {
		_, err := NewUser("   ", "a@example.com")
		assert.ErrorIs(t, err, ErrInvalidUsername)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewUser("wren", "not-an-email")
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestUserAddSkill(t *testing.T) {
	user, err := NewUser("wren", "wren@example.com")
	require.NoError(t, err)

	require.NoError(t, user.AddSkill("Go"))
	assert.ErrorIs(t, user.AddSkill("go"), ErrDuplicateSkill)
	assert.ErrorIs(t, user.AddSkill("  "), ErrEmptySkill)
	assert.Equal(t, []string{"Go"}, user.Skills())
}

func TestUserRecordTaskCompletion(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2026, 3, 10+offset, 14, 30, 0, 0, time.UTC)
	}

	t.Run("first completion starts streak", func(t *testing.T) {
		user, _ := NewUser("wren", "wren@example.com")

		user.RecordTaskCompletion(day(0), true)

		assert.Equal(t, 1, user.CompletedTasks())
		assert.Equal(t, 0, user.OverdueTasks())
		assert.Equal(t, 1, user.StreakDays())
	})

	t.Run("same day keeps streak", func(t *testing.T) {
		user, _ := NewUser("wren", "wren@example.com")
		user.RecordTaskCompletion(day(0), true)

		user.RecordTaskCompletion(day(0).Add(3*time.Hour), true)

		assert.Equal(t, 2, user.CompletedTasks())
		assert.Equal(t, 1, user.StreakDays())
	})

	t.Run("consecutive days extend streak", func(t *testing.T) {
		user, _ := NewUser("wren", "wren@example.com")
		user.RecordTaskCompletion(day(0), true)
		user.RecordTaskCompletion(day(1), true)
		user.RecordTaskCompletion(day(2), true)

		assert.Equal(t, 3, user.StreakDays())
	})

	t.Run("gap resets streak", func(t *testing.T) {
		user, _ := NewUser("wren", "wren@example.com")
		user.RecordTaskCompletion(day(0), true)
		user.RecordTaskCompletion(day(1), true)

		user.RecordTaskCompletion(day(4), true)

		assert.Equal(t, 1, user.StreakDays())
	})

	t.Run("late completion counts as overdue", func(t *testing.T) {
		user, _ := NewUser("wren", "wren@example.com")

		user.RecordTaskCompletion(day(0), false)

		assert.Equal(t, 1, user.CompletedTasks())
		assert.Equal(t, 1, user.OverdueTasks())
	})
}

func TestSkillDistribution(t *testing.T) {
	dist := SkillDistribution(
		[]string{"frontend", "backend"},
		[]string{"frontend", "Frontend", "devops"},
	)

	assert.Equal(t, map[string]int{"frontend": 2, "backend": 0}, dist)
}

package queries

import (
	"context"

	"github.com/google/uuid"
)

// CollaborationStats summarizes a user's task record in the projects
// context.
type CollaborationStats struct {
	TotalTasks     int
	FinishedTasks  int
	OnTimeTasks    int
	PendingTasks   int
	CompletedRoles []string
}

// CollaborationStatsProvider exposes projects-context task statistics to
// profile queries without coupling them to the projects persistence.
type CollaborationStatsProvider interface {
	StatsFor(ctx context.Context, userID uuid.UUID) (CollaborationStats, error)
}

// LeaderboardCache holds a ranked snapshot of all users so leaderboard
// requests do not recompute the global mean on every hit.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]RankedUserDTO, bool)
	Set(ctx context.Context, users []RankedUserDTO)
	Invalidate(ctx context.Context)
}

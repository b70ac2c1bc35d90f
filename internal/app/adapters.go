package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	identityQueries "github.com/felixgeelhaar/atelier/internal/identity/application/queries"
	projectsDomain "github.com/felixgeelhaar/atelier/internal/projects/domain"
)

// ratingGate authorizes ratings against the projects context: the rater must
// be the task's creator and the rated user one of its collaborators.
type ratingGate struct {
	projects projectsDomain.Repository
}

func (g *ratingGate) AuthorizeRating(ctx context.Context, taskID, ratedBy, userID uuid.UUID) error {
	project, err := g.projects.FindByTaskID(ctx, taskID)
	if err != nil {
		return err
	}
	task := project.FindTask(taskID)
	if task == nil {
		return projectsDomain.ErrTaskNotFound
	}
	if !project.IsCreator(ratedBy) {
		return projectsDomain.ErrNotCreator
	}
	if !task.IsCollaborator(userID) {
		return projectsDomain.ErrNotCollaborator
	}
	return nil
}

// roomAuthorizer admits task members (creator or collaborator) to a task's
// collaboration room.
type roomAuthorizer struct {
	projects projectsDomain.Repository
}

func (a *roomAuthorizer) AuthorizeRoom(ctx context.Context, taskID, userID uuid.UUID) error {
	project, err := a.projects.FindByTaskID(ctx, taskID)
	if err != nil {
		return err
	}
	task := project.FindTask(taskID)
	if task == nil {
		return projectsDomain.ErrTaskNotFound
	}
	if !project.IsCreator(userID) && !task.IsCollaborator(userID) {
		return projectsDomain.ErrNotCollaborator
	}
	return nil
}

// collaborationStats exposes projects-side task statistics to identity
// queries.
type collaborationStats struct {
	projects projectsDomain.Repository
	now      func() time.Time
}

func (s *collaborationStats) StatsFor(ctx context.Context, userID uuid.UUID) (identityQueries.CollaborationStats, error) {
	stats, err := s.projects.CollaboratorTaskStats(ctx, userID, s.now())
	if err != nil {
		return identityQueries.CollaborationStats{}, err
	}
	return identityQueries.CollaborationStats{
		TotalTasks:     stats.Total,
		FinishedTasks:  stats.Finished,
		OnTimeTasks:    stats.OnTime,
		PendingTasks:   stats.Pending,
		CompletedRoles: stats.CompletedRoles,
	}, nil
}

// noopLeaderboardCache is used when Redis is not configured; every leaderboard
// request recomputes the ranking.
type noopLeaderboardCache struct{}

func (noopLeaderboardCache) Get(ctx context.Context) ([]identityQueries.RankedUserDTO, bool) {
	return nil, false
}
func (noopLeaderboardCache) Set(ctx context.Context, ranked []identityQueries.RankedUserDTO) {}
func (noopLeaderboardCache) Invalidate(ctx context.Context)                                  {}

package queries

import (
	"context"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	"github.com/google/uuid"
)

// UserStatsDTO is the profile statistics view.
type UserStatsDTO struct {
	UserID            uuid.UUID      `json:"user_id"`
	Username          string         `json:"username"`
	CompletedTasks    int            `json:"completed_tasks"`
	TotalTasks        int            `json:"total_tasks"`
	OnTimeTasks       int            `json:"on_time_tasks"`
	PendingTasks      int            `json:"pending_tasks"`
	SkillDistribution map[string]int `json:"skill_distribution"`
	AverageRating     float64        `json:"average_rating"`
	RatingCount       int            `json:"rating_count"`
	StreakDays        int            `json:"streak_days"`
}

// GetUserStatsQuery contains the parameters for profile statistics.
type GetUserStatsQuery struct {
	UserID uuid.UUID
}

// GetUserStatsHandler handles the GetUserStatsQuery.
type GetUserStatsHandler struct {
	userRepo domain.Repository
	stats    CollaborationStatsProvider
}

// NewGetUserStatsHandler creates a new GetUserStatsHandler.
func NewGetUserStatsHandler(userRepo domain.Repository, stats CollaborationStatsProvider) *GetUserStatsHandler {
	return &GetUserStatsHandler{userRepo: userRepo, stats: stats}
}

// Handle executes the GetUserStatsQuery.
func (h *GetUserStatsHandler) Handle(ctx context.Context, query GetUserStatsQuery) (*UserStatsDTO, error) {
	user, err := h.userRepo.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	ratings, err := h.userRepo.RatingsFor(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	scores := make([]int, len(ratings))
	for i, r := range ratings {
		scores[i] = r.Score()
	}

	taskStats, err := h.stats.StatsFor(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	return &UserStatsDTO{
		UserID:            user.ID(),
		Username:          user.Username(),
		CompletedTasks:    user.CompletedTasks(),
		TotalTasks:        taskStats.TotalTasks,
		OnTimeTasks:       taskStats.OnTimeTasks,
		PendingTasks:      taskStats.PendingTasks,
		SkillDistribution: domain.SkillDistribution(user.Skills(), taskStats.CompletedRoles),
		AverageRating:     domain.AverageRating(scores),
		RatingCount:       len(scores),
		StreakDays:        user.StreakDays(),
	}, nil
}

// OnTimeRateDTO is a collaborator's on-time completion rate.
type OnTimeRateDTO struct {
	UserID     uuid.UUID `json:"user_id"`
	Finished   int       `json:"finished"`
	OnTime     int       `json:"on_time"`
	OnTimeRate float64   `json:"on_time_rate"`
}

// GetOnTimeRateQuery contains the parameters for the on-time rate.
type GetOnTimeRateQuery struct {
	UserID uuid.UUID
}

// GetOnTimeRateHandler handles the GetOnTimeRateQuery.
type GetOnTimeRateHandler struct {
	stats CollaborationStatsProvider
}

// NewGetOnTimeRateHandler creates a new GetOnTimeRateHandler.
func NewGetOnTimeRateHandler(stats CollaborationStatsProvider) *GetOnTimeRateHandler {
	return &GetOnTimeRateHandler{stats: stats}
}

// Handle executes the GetOnTimeRateQuery. A user with no finished tasks has
// a rate of 0.
func (h *GetOnTimeRateHandler) Handle(ctx context.Context, query GetOnTimeRateQuery) (*OnTimeRateDTO, error) {
	taskStats, err := h.stats.StatsFor(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	dto := &OnTimeRateDTO{
		UserID:   query.UserID,
		Finished: taskStats.FinishedTasks,
		OnTime:   taskStats.OnTimeTasks,
	}
	if taskStats.FinishedTasks > 0 {
		dto.OnTimeRate = float64(taskStats.OnTimeTasks) / float64(taskStats.FinishedTasks)
	}
	return dto, nil
}

package queries

import (
	"context"
	"sort"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	"github.com/google/uuid"
)

// RankedUserDTO is one leaderboard row.
type RankedUserDTO struct {
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Skills         []string  `json:"skills"`
	RatingCount    int       `json:"rating_count"`
	AverageRating  float64   `json:"average_rating"`
	WeightedRating float64   `json:"weighted_rating"`
	CompletedTasks int       `json:"completed_tasks"`
	StreakDays     int       `json:"streak_days"`
}

// RankUsersQuery lists all users ordered by weighted rating.
type RankUsersQuery struct{}

// RankUsersHandler handles the RankUsersQuery.
type RankUsersHandler struct {
	userRepo domain.Repository
	cache    LeaderboardCache
}

// NewRankUsersHandler creates a new RankUsersHandler. The cache is optional.
func NewRankUsersHandler(userRepo domain.Repository, cache LeaderboardCache) *RankUsersHandler {
	return &RankUsersHandler{userRepo: userRepo, cache: cache}
}

// Handle executes the RankUsersQuery.
func (h *RankUsersHandler) Handle(ctx context.Context, _ RankUsersQuery) ([]RankedUserDTO, error) {
	if h.cache != nil {
		if ranked, ok := h.cache.Get(ctx); ok {
			return ranked, nil
		}
	}

	users, err := h.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := h.userRepo.RatingSummaries(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID]domain.RatingSummary, len(summaries))
	for _, s := range summaries {
		byUser[s.UserID] = s
	}
	globalMean := domain.GlobalMeanRating(summaries)

	ranked := make([]RankedUserDTO, 0, len(users))
	for _, u := range users {
		summary := byUser[u.ID()]
		ranked = append(ranked, RankedUserDTO{
			UserID:         u.ID(),
			Username:       u.Username(),
			Skills:         u.Skills(),
			RatingCount:    summary.Count,
			AverageRating:  summary.Average,
			WeightedRating: domain.WeightedRating(summary.Count, summary.Average, globalMean),
			CompletedTasks: u.CompletedTasks(),
			StreakDays:     u.StreakDays(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].WeightedRating != ranked[j].WeightedRating {
			return ranked[i].WeightedRating > ranked[j].WeightedRating
		}
		return ranked[i].Username < ranked[j].Username
	})

	if h.cache != nil {
		h.cache.Set(ctx, ranked)
	}
	return ranked, nil
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/atelier/internal/identity/application/commands"
	"github.com/felixgeelhaar/atelier/internal/identity/application/queries"
)

// UserHandler handles user, rating and leaderboard API requests.
type UserHandler struct {
	register     *commands.RegisterUserHandler
	addSkill     *commands.AddSkillHandler
	submitRating *commands.SubmitRatingHandler
	rankUsers    *queries.RankUsersHandler
	userStats    *queries.GetUserStatsHandler
	onTimeRate   *queries.GetOnTimeRateHandler
	logger       *slog.Logger
}

// UserHandlerConfig holds dependencies for the user handler.
type UserHandlerConfig struct {
	Register     *commands.RegisterUserHandler
	AddSkill     *commands.AddSkillHandler
	SubmitRating *commands.SubmitRatingHandler
	RankUsers    *queries.RankUsersHandler
	UserStats    *queries.GetUserStatsHandler
	OnTimeRate   *queries.GetOnTimeRateHandler
	Logger       *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(cfg UserHandlerConfig) *UserHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &UserHandler{
		register:     cfg.Register,
		addSkill:     cfg.AddSkill,
		submitRating: cfg.SubmitRating,
		rankUsers:    cfg.RankUsers,
		userStats:    cfg.UserStats,
		onTimeRate:   cfg.OnTimeRate,
		logger:       cfg.Logger,
	}
}

type registerUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Skills   []string `json:"skills"`
}

// RegisterUser handles POST /api/v1/users
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.register.Handle(r.Context(), commands.RegisterUserCommand{
		Username: req.Username,
		Email:    req.Email,
		Skills:   req.Skills,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"user_id": result.UserID.String(),
	})
}

type addSkillRequest struct {
	Skill string `json:"skill"`
}

// AddSkill handles POST /api/v1/users/me/skills
func (h *UserHandler) AddSkill(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req addSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.addSkill.Handle(r.Context(), commands.AddSkillCommand{
		UserID: userID,
		Skill:  req.Skill,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type submitRatingRequest struct {
	TaskID   uuid.UUID `json:"task_id"`
	Score    int       `json:"score"`
	Feedback string    `json:"feedback"`
}

// SubmitRating handles POST /api/v1/users/{userID}/ratings
func (h *UserHandler) SubmitRating(w http.ResponseWriter, r *http.Request, ratedBy uuid.UUID) {
	ratedUserID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	var req submitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = h.submitRating.Handle(r.Context(), commands.SubmitRatingCommand{
		TaskID:   req.TaskID,
		UserID:   ratedUserID,
		RatedBy:  ratedBy,
		Score:    req.Score,
		Feedback: req.Feedback,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// RankUsers handles GET /api/v1/users/rankings
func (h *UserHandler) RankUsers(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.rankUsers.Handle(r.Context(), queries.RankUsersQuery{})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

// GetUserStats handles GET /api/v1/users/{userID}/stats
func (h *UserHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	stats, err := h.userStats.Handle(r.Context(), queries.GetUserStatsQuery{UserID: userID})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetOnTimeRate handles GET /api/v1/users/{userID}/on-time-rate
func (h *UserHandler) GetOnTimeRate(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	rate, err := h.onTimeRate.Handle(r.Context(), queries.GetOnTimeRateQuery{UserID: userID})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

package domain

import (
	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/google/uuid"
)

// RatingSubmittedRoutingKey routes rating events on the bus.
const RatingSubmittedRoutingKey = "identity.rating.submitted"

// RatingSubmitted is published after a rating is stored. Consumers use it to
// invalidate cached leaderboards.
type RatingSubmitted struct {
	sharedDomain.BaseEvent
	UserID  uuid.UUID `json:"user_id"`
	RatedBy uuid.UUID `json:"rated_by"`
	Score   int       `json:"score"`
}

// NewRatingSubmitted creates a RatingSubmitted event.
func NewRatingSubmitted(userID, ratedBy uuid.UUID, score int) *RatingSubmitted {
	return &RatingSubmitted{
		BaseEvent: sharedDomain.NewBaseEvent(userID, "user", RatingSubmittedRoutingKey),
		UserID:    userID,
		RatedBy:   ratedBy,
		Score:     score,
	}
}

package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/atelier/internal/shared/domain"
	"github.com/google/uuid"
)

// PriorWeight is the number of phantom ratings at the global mean that a
// user's weighted score is anchored with. Low rating counts pull the score
// toward the platform average instead of letting a single 5-star review
// dominate the leaderboard.
const PriorWeight = 5.0

// Rating is a single peer review left by a project creator for a
// collaborator after working together on a task.
type Rating struct {
	sharedDomain.BaseEntity
	userID   uuid.UUID
	ratedBy  uuid.UUID
	score    int
	feedback string
}

// NewRating creates a rating. Scores outside 1..5 are rejected, never
// clamped.
func NewRating(userID, ratedBy uuid.UUID, score int, feedback string) (*Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}
	if userID == ratedBy {
		return nil, ErrSelfRating
	}
	return &Rating{
		BaseEntity: sharedDomain.NewBaseEntity(),
		userID:     userID,
		ratedBy:    ratedBy,
		score:      score,
		feedback:   feedback,
	}, nil
}

func (r *Rating) UserID() uuid.UUID  { return r.userID }
func (r *Rating) RatedBy() uuid.UUID { return r.ratedBy }
func (r *Rating) Score() int         { return r.score }
func (r *Rating) Feedback() string   { return r.feedback }

// RehydrateRating recreates a rating from persisted state.
func RehydrateRating(id, userID, ratedBy uuid.UUID, score int, feedback string, createdAt time.Time) *Rating {
	return &Rating{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		userID:     userID,
		ratedBy:    ratedBy,
		score:      score,
		feedback:   feedback,
	}
}

// RatingSummary is a user's rating count and raw average.
type RatingSummary struct {
	UserID  uuid.UUID
	Count   int
	Average float64
}

// AverageRating computes the arithmetic mean of scores, or 0 for none.
func AverageRating(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// GlobalMeanRating computes the mean of every individual rating score across
// all rated users: Σ(count·average)/Σ(count). A user with many ratings moves
// the mean more than a user with one; users without ratings do not drag it
// down.
func GlobalMeanRating(summaries []RatingSummary) float64 {
	sum := 0.0
	total := 0
	for _, s := range summaries {
		if s.Count == 0 {
			continue
		}
		sum += float64(s.Count) * s.Average
		total += s.Count
	}
	if total == 0 {
		return 0
	}
	return sum / float64(total)
}

// WeightedRating blends a user's raw average with the global mean using a
// Bayesian prior of PriorWeight phantom ratings:
//
//	weighted = (v/(v+m))*R + (m/(v+m))*C
//
// where v is the user's rating count, R their raw average, C the global
// mean, and m the prior weight. A user with no ratings scores 0.
func WeightedRating(count int, average, globalMean float64) float64 {
	if count == 0 {
		return 0
	}
	v := float64(count)
	return (v/(v+PriorWeight))*average + (PriorWeight/(v+PriorWeight))*globalMean
}

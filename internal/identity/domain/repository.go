package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists users and their ratings.
type Repository interface {
	Save(ctx context.Context, user *User) error
	// ApplyCompletion bumps the user's task counters and activity streak in a
	// single statement, following the same streak rules as
	// User.RecordTaskCompletion. Concurrent completions must each count.
	ApplyCompletion(ctx context.Context, userID uuid.UUID, completedOn time.Time, onTime bool) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)

	AddRating(ctx context.Context, rating *Rating) error
	RatingsFor(ctx context.Context, userID uuid.UUID) ([]*Rating, error)
	// RatingSummaries returns count and raw average per user, for every user.
	RatingSummaries(ctx context.Context) ([]RatingSummary, error)
}

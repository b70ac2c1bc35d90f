package subscribers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/atelier/internal/identity/application/queries"
	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Save(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) ApplyCompletion(ctx context.Context, userID uuid.UUID, completedOn time.Time, onTime bool) error {
	args := m.Called(ctx, userID, completedOn, onTime)
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) FindAll(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *mockUserRepo) AddRating(ctx context.Context, rating *domain.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *mockUserRepo) RatingsFor(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rating), args.Error(1)
}

func (m *mockUserRepo) RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RatingSummary), args.Error(1)
}

type memoryCache struct {
	invalidated int
}

func (c *memoryCache) Get(ctx context.Context) ([]queries.RankedUserDTO, bool) { return nil, false }
func (c *memoryCache) Set(ctx context.Context, users []queries.RankedUserDTO)  {}
func (c *memoryCache) Invalidate(ctx context.Context)                          { c.invalidated++ }

func completionEvent(t *testing.T, userID uuid.UUID, completedOn time.Time, onTime bool) *eventbus.ConsumedEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"user_id":      userID,
		"completed_on": completedOn,
		"on_time":      onTime,
	})
	require.NoError(t, err)
	return &eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: taskCompletedRoutingKey,
		Payload:    payload,
	}
}

func TestTaskCompletedSubscriber_Handle(t *testing.T) {
	t.Run("applies completion atomically and invalidates cache", func(t *testing.T) {
		userID := uuid.New()
		completedOn := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

		repo := new(mockUserRepo)
		cache := &memoryCache{}
		ctx := context.Background()

		repo.On("ApplyCompletion", ctx, userID, mock.AnythingOfType("time.Time"), false).Return(nil)

		sub := NewTaskCompletedSubscriber(repo, cache, nil)
		event := completionEvent(t, userID, completedOn, false)

		require.NoError(t, sub.Handle(ctx, event))

		// The counter update goes through the repository's single-statement
		// increment, never through a load-mutate-save of the aggregate.
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Equal(t, 1, cache.invalidated)
	})

	t.Run("malformed payload is dropped without error", func(t *testing.T) {
		repo := new(mockUserRepo)

		sub := NewTaskCompletedSubscriber(repo, nil, nil)
		event := &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: taskCompletedRoutingKey,
			Payload:    []byte(`{"user_id": 42}`),
		}

		require.NoError(t, sub.Handle(context.Background(), event))
		repo.AssertNotCalled(t, "ApplyCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("declares its routing key", func(t *testing.T) {
		sub := NewTaskCompletedSubscriber(new(mockUserRepo), nil, nil)
		assert.Equal(t, []string{"projects.task.completed"}, sub.EventTypes())
	})
}

func TestRatingSubmittedSubscriber_Handle(t *testing.T) {
	cache := &memoryCache{}
	sub := NewRatingSubmittedSubscriber(cache, nil)

	require.NoError(t, sub.Handle(context.Background(), &eventbus.ConsumedEvent{
		RoutingKey: domain.RatingSubmittedRoutingKey,
	}))

	assert.Equal(t, 1, cache.invalidated)
}

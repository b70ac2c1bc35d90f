package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockUserRepo is a mock implementation of domain.Repository.
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

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockRatingGate is a mock implementation of RatingGate.
type mockRatingGate struct {
	mock.Mock
}

func (m *mockRatingGate) AuthorizeRating(ctx context.Context, taskID, ratedBy, userID uuid.UUID) error {
	args := m.Called(ctx, taskID, ratedBy, userID)
	return args.Error(0)
}

// mockPublisher is a mock implementation of eventbus.Publisher.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type ctxKey string

func passthroughUow(ctx context.Context) (*mockUnitOfWork, context.Context) {
	uow := new(mockUnitOfWork)
	txCtx := context.WithValue(ctx, ctxKey("tx"), "transaction")
	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Commit", txCtx).Return(nil).Maybe()
	uow.On("Rollback", txCtx).Return(nil).Maybe()
	return uow, txCtx
}

func TestRegisterUserHandler_Handle(t *testing.T) {
	t.Run("creates user with skills", func(t *testing.T) {
		repo := new(mockUserRepo)
		ctx := context.Background()
		uow, txCtx := passthroughUow(ctx)
		handler := NewRegisterUserHandler(repo, uow)

		repo.On("Save", txCtx, mock.AnythingOfType("*domain.User")).Return(nil)

		result, err := handler.Handle(ctx, RegisterUserCommand{
			Username: "wren",
			Email:    "wren@example.com",
			Skills:   []string{"go", "react"},
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.UserID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects invalid profile", func(t *testing.T) {
		repo := new(mockUserRepo)
		ctx := context.Background()
		uow, _ := passthroughUow(ctx)
		handler := NewRegisterUserHandler(repo, uow)

		_, err := handler.Handle(ctx, RegisterUserCommand{Username: "", Email: "a@b.c"})

		assert.ErrorIs(t, err, domain.ErrInvalidUsername)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestAddSkillHandler_Handle(t *testing.T) {
	t.Run("adds skill and saves", func(t *testing.T) {
		user, err := domain.NewUser("wren", "wren@example.com")
		require.NoError(t, err)

		repo := new(mockUserRepo)
		ctx := context.Background()
		uow, txCtx := passthroughUow(ctx)
		handler := NewAddSkillHandler(repo, uow)

		repo.On("FindByID", txCtx, user.ID()).Return(user, nil)
		repo.On("Save", txCtx, user).Return(nil)

		require.NoError(t, handler.Handle(ctx, AddSkillCommand{UserID: user.ID(), Skill: "sql"}))
		assert.Contains(t, user.Skills(), "sql")
	})

	t.Run("duplicate skill fails", func(t *testing.T) {
		user, err := domain.NewUser("wren", "wren@example.com")
		require.NoError(t, err)
		require.NoError(t, user.AddSkill("go"))

		repo := new(mockUserRepo)
		ctx := context.Background()
		uow, txCtx := passthroughUow(ctx)
		handler := NewAddSkillHandler(repo, uow)

		repo.On("FindByID", txCtx, user.ID()).Return(user, nil)

		err = handler.Handle(ctx, AddSkillCommand{UserID: user.ID(), Skill: "Go"})

		assert.ErrorIs(t, err, domain.ErrDuplicateSkill)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestSubmitRatingHandler_Handle(t *testing.T) {
	taskID := uuid.New()
	rater := uuid.New()

	t.Run("stores authorized rating and publishes", func(t *testing.T) {
		user, err := domain.NewUser("wren", "wren@example.com")
		require.NoError(t, err)

		repo := new(mockUserRepo)
		gate := new(mockRatingGate)
		pub := new(mockPublisher)
		ctx := context.Background()
		uow, txCtx := passthroughUow(ctx)
		handler := NewSubmitRatingHandler(repo, gate, uow, pub, nil)

		gate.On("AuthorizeRating", txCtx, taskID, rater, user.ID()).Return(nil)
		repo.On("FindByID", txCtx, user.ID()).Return(user, nil)
		repo.On("AddRating", txCtx, mock.AnythingOfType("*domain.Rating")).Return(nil)
		pub.On("Publish", mock.Anything, domain.RatingSubmittedRoutingKey, mock.Anything).Return(nil)

		err = handler.Handle(ctx, SubmitRatingCommand{
			TaskID:   taskID,
			UserID:   user.ID(),
			RatedBy:  rater,
			Score:    4,
			Feedback: "reliable",
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
		gate.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("rejects out of range score before touching the store", func(t *testing.T) {
		repo := new(mockUserRepo)
		gate := new(mockRatingGate)
		pub := new(mockPublisher)
		uow := new(mockUnitOfWork)
		handler := NewSubmitRatingHandler(repo, gate, uow, pub, nil)

		err := handler.Handle(context.Background(), SubmitRatingCommand{
			TaskID:  taskID,
			UserID:  uuid.New(),
			RatedBy: rater,
			Score:   6,
		})

		assert.ErrorIs(t, err, domain.ErrInvalidScore)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("unauthorized rating fails", func(t *testing.T) {
		userID := uuid.New()

		repo := new(mockUserRepo)
		gate := new(mockRatingGate)
		pub := new(mockPublisher)
		ctx := context.Background()
		uow, txCtx := passthroughUow(ctx)
		handler := NewSubmitRatingHandler(repo, gate, uow, pub, nil)

		gate.On("AuthorizeRating", txCtx, taskID, rater, userID).Return(errors.New("not the task creator"))

		err := handler.Handle(ctx, SubmitRatingCommand{
			TaskID:  taskID,
			UserID:  userID,
			RatedBy: rater,
			Score:   5,
		})

		assert.Error(t, err)
		repo.AssertNotCalled(t, "AddRating", mock.Anything, mock.Anything)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

package commands

import (
	"context"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/google/uuid"
)

// RegisterUserCommand creates a user profile.
type RegisterUserCommand struct {
	Username string
	Email    string
	Skills   []string
}

// RegisterUserResult contains the new user's ID.
type RegisterUserResult struct {
	UserID uuid.UUID
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	userRepo domain.Repository
	uow      sharedApplication.UnitOfWork
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(userRepo domain.Repository, uow sharedApplication.UnitOfWork) *RegisterUserHandler {
	return &RegisterUserHandler{userRepo: userRepo, uow: uow}
}

// Handle executes the RegisterUserCommand.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	var result *RegisterUserResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		user, err := domain.NewUser(cmd.Username, cmd.Email)
		if err != nil {
			return err
		}
		for _, skill := range cmd.Skills {
			if err := user.AddSkill(skill); err != nil {
				return err
			}
		}

		if err := h.userRepo.Save(txCtx, user); err != nil {
			return err
		}
		result = &RegisterUserResult{UserID: user.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

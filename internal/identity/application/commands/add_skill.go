package commands

import (
	"context"

	"github.com/felixgeelhaar/atelier/internal/identity/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/google/uuid"
)

// AddSkillCommand appends a skill to a user's profile.
type AddSkillCommand struct {
	UserID uuid.UUID
	Skill  string
}

// AddSkillHandler handles the AddSkillCommand.
type AddSkillHandler struct {
	userRepo domain.Repository
	uow      sharedApplication.UnitOfWork
}

// NewAddSkillHandler creates a new AddSkillHandler.
func NewAddSkillHandler(userRepo domain.Repository, uow sharedApplication.UnitOfWork) *AddSkillHandler {
	return &AddSkillHandler{userRepo: userRepo, uow: uow}
}

// Handle executes the AddSkillCommand.
func (h *AddSkillHandler) Handle(ctx context.Context, cmd AddSkillCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		user, err := h.userRepo.FindByID(txCtx, cmd.UserID)
		if err != nil {
			return err
		}
		if err := user.AddSkill(cmd.Skill); err != nil {
			return err
		}
		return h.userRepo.Save(txCtx, user)
	})
}

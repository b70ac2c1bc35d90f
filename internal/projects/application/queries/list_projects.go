package queries

import (
	"context"

	"github.com/felixgeelhaar/atelier/internal/projects/domain"
	"github.com/google/uuid"
)

// ListProjectsQuery lists projects, optionally restricted to one creator.
type ListProjectsQuery struct {
	CreatedBy *uuid.UUID
}

// ListProjectsHandler handles the ListProjectsQuery.
type ListProjectsHandler struct {
	projectRepo domain.Repository
}

// NewListProjectsHandler creates a new ListProjectsHandler.
func NewListProjectsHandler(projectRepo domain.Repository) *ListProjectsHandler {
	return &ListProjectsHandler{projectRepo: projectRepo}
}

// Handle executes the ListProjectsQuery.
func (h *ListProjectsHandler) Handle(ctx context.Context, query ListProjectsQuery) ([]*ProjectDTO, error) {
	var (
		projects []*domain.Project
		err      error
	)
	if query.CreatedBy != nil {
		projects, err = h.projectRepo.FindByCreator(ctx, *query.CreatedBy)
	} else {
		projects, err = h.projectRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]*ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	return dtos, nil
}

// PopularProjectsQuery lists projects ranked by applicant interest.
type PopularProjectsQuery struct {
	Limit int
}

// PopularProjectsHandler handles the PopularProjectsQuery.
type PopularProjectsHandler struct {
	projectRepo domain.Repository
}

// NewPopularProjectsHandler creates a new PopularProjectsHandler.
func NewPopularProjectsHandler(projectRepo domain.Repository) *PopularProjectsHandler {
	return &PopularProjectsHandler{projectRepo: projectRepo}
}

// Handle executes the PopularProjectsQuery.
func (h *PopularProjectsHandler) Handle(ctx context.Context, query PopularProjectsQuery) ([]*ProjectDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	projects, err := h.projectRepo.FindPopular(ctx, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]*ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	return dtos, nil
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/atelier/internal/execution"
	identityDomain "github.com/felixgeelhaar/atelier/internal/identity/domain"
	projectsDomain "github.com/felixgeelhaar/atelier/internal/projects/domain"
)

// respondError maps domain errors onto the API error taxonomy: missing
// resources are 404, permission failures 403, state conflicts 409, domain
// validation 422, a down runner 503, and anything unrecognized a logged 500.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, projectsDomain.ErrProjectNotFound),
		errors.Is(err, projectsDomain.ErrTaskNotFound),
		errors.Is(err, projectsDomain.ErrCodeFileNotFound),
		errors.Is(err, projectsDomain.ErrNotApplicant),
		errors.Is(err, identityDomain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, projectsDomain.ErrNotCreator),
		errors.Is(err, projectsDomain.ErrNotCollaborator),
		errors.Is(err, projectsDomain.ErrCreatorCannotApply):
		writeError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, projectsDomain.ErrAlreadyApplied),
		errors.Is(err, projectsDomain.ErrAlreadyCollaborator):
		writeError(w, http.StatusConflict, err.Error())

	case errors.Is(err, projectsDomain.ErrEmptyTitle),
		errors.Is(err, projectsDomain.ErrInvalidFileName),
		errors.Is(err, identityDomain.ErrInvalidUsername),
		errors.Is(err, identityDomain.ErrInvalidEmail),
		errors.Is(err, identityDomain.ErrInvalidScore),
		errors.Is(err, identityDomain.ErrSelfRating),
		errors.Is(err, identityDomain.ErrEmptySkill),
		errors.Is(err, identityDomain.ErrDuplicateSkill),
		errors.Is(err, execution.ErrUnsupportedLanguage):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, execution.ErrRunnerUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())

	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

package api

import (
	"errors"
	"net/http"

	service "github.com/bestquark/ml-at-ml-log/internal/app"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/token"
	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/internal/domain/rotation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrMalformedSlot),
		errors.Is(err, model.ErrInvalidParticipant),
		errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, token.ErrInvalidToken):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, service.ErrStaleConfirmation):
		return http.StatusConflict, "conflict"
	case errors.Is(err, rotation.ErrInvalidConfiguration),
		errors.Is(err, rotation.ErrEmptyCandidatePool):
		return http.StatusUnprocessableEntity, "invalid_configuration"
	case errors.Is(err, repository.ErrStoreUnavailable),
		errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/smarthr/internal/adapters/repository"
	service "github.com/okian/smarthr/internal/app"
	"github.com/okian/smarthr/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// classify returns the status code and error code for err.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrStaleStatus):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func isComputation(err error) bool {
	return errors.Is(err, model.ErrComputation)
}

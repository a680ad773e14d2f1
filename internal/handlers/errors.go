package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/todos-api/apiserver/internal/auth"
	"github.com/todos-api/apiserver/internal/logger"
	"github.com/todos-api/apiserver/internal/services"
	"github.com/todos-api/apiserver/internal/store"
	"go.uber.org/zap"
)

// errValidation marks handler-side input validation failures.
var errValidation = errors.New("validation failed")

// writeServiceError maps an error kind to its HTTP status. Unknown errors
// are logged and answered with fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrOwnershipMismatch):
		writeError(w, http.StatusUnauthorized, "token does not match user")
	case errors.Is(err, auth.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, "not authorized")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "no record found")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusNotAcceptable, "record already exists")
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidPassword),
		errors.Is(err, services.ErrEmptyPatch),
		errors.Is(err, services.ErrMissingField),
		errors.Is(err, errValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Log.Error(fallback,
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

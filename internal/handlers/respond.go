package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/repositories"
)

// successEnvelope is the uniform wrapper returned by every successful endpoint.
type successEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// errorEnvelope is the uniform wrapper returned by every failed endpoint.
type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, successEnvelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string, errs ...string) {
	if errs == nil {
		errs = []string{}
	}
	writeJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", message)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

// respondRepoError maps datastore sentinel errors onto the error taxonomy:
// missing records are 404, uniqueness violations are 409, everything else is
// logged and reported as an opaque 500. Raw datastore errors never reach the
// caller.
func respondRepoError(ctx context.Context, w http.ResponseWriter, err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, conflictMsg)
	default:
		logging.FromContext(ctx).Error("unexpected repository error", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

// currentUser pulls the authenticated identity attached by the auth
// middleware, failing the request when it is absent.
func currentUser(ctx context.Context, w http.ResponseWriter) (string, bool) {
	user, ok := auth.UserFromContext(ctx)
	if !ok || user.ID == "" {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return user.ID, true
}

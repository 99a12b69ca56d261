package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/hall-booking/internal/application"
	"github.com/example/hall-booking/internal/interval"
)

var (
	errBadRequestBody      = errors.New("invalid request body")
	errInvalidHallID       = errors.New("invalid hall id")
	errInvalidBookingID    = errors.New("invalid booking id")
	errInvalidIssueID      = errors.New("invalid issue id")
	errInvalidUserID       = errors.New("invalid user id")
	errInvalidTimeRange    = errors.New("start and end must be RFC3339 timestamps")
	errMissingSessionToken = errors.New("session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates the application error taxonomy into HTTP
// statuses: conflicts 409, policy refusals and validation 422, missing
// resources 404, authorization 403, bad sessions 401.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var cErr *application.ConflictError
	var pErr *application.PolicyError
	var vErr *application.ValidationError

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "ACCOUNT_DISABLED",
			Message:   "this account is blocked",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "session is no longer valid, please sign in again",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "a resource with this identifier already exists",
		})
	case errors.Is(err, application.ErrHallInUse):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "HALL_IN_USE",
			Message:   "the hall has future bookings and cannot be removed",
		})
	case errors.As(err, &cErr):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: conflictErrorCode(cErr.Kind),
			Message:   conflictMessage(cErr.Kind),
		})
	case errors.As(err, &pErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "POLICY_" + strings.ToUpper(string(pErr.Reason)),
			Message:   pErr.Message,
		})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  vErr.FieldErrors,
		})
	default:
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func conflictErrorCode(kind interval.Kind) string {
	switch kind {
	case interval.KindMaintenance:
		return "HALL_UNDER_MAINTENANCE"
	case interval.KindAvailability:
		return "HALL_RESERVED"
	default:
		return "HALL_NOT_AVAILABLE"
	}
}

func conflictMessage(kind interval.Kind) string {
	switch kind {
	case interval.KindMaintenance:
		return "the hall is under maintenance during the requested interval"
	case interval.KindAvailability:
		return "the hall is reserved during the requested dates"
	default:
		return "the hall is not available during the requested interval"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

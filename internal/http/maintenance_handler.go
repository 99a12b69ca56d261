package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/hall-booking/internal/application"
)

type maintenanceService interface {
	DeclareAvailability(ctx context.Context, params application.DeclareAvailabilityParams) (application.AvailabilityWindow, error)
	ScheduleMaintenance(ctx context.Context, params application.ScheduleMaintenanceParams) (application.MaintenanceWindow, error)
	ListAvailabilityForHall(ctx context.Context, hallID string) ([]application.AvailabilityWindow, error)
	ListMaintenanceForHall(ctx context.Context, hallID string) ([]application.MaintenanceWindow, error)
}

type MaintenanceHandler struct {
	service   maintenanceService
	responder responder
	logger    *slog.Logger
}

func NewMaintenanceHandler(service maintenanceService, logger *slog.Logger) *MaintenanceHandler {
	base := defaultLogger(logger)
	return &MaintenanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MaintenanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MaintenanceHandler", operation, attrs...)
}

func (h *MaintenanceHandler) DeclareAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "DeclareAvailability", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode availability request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, end, err := parseInterval(req.Start, req.End)
	if err != nil {
		h.log(r.Context(), "DeclareAvailability", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse availability interval", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "DeclareAvailability", "principal_id", principal.UserID, "hall_id", req.HallID)

	window, err := h.service.DeclareAvailability(r.Context(), application.DeclareAvailabilityParams{
		Principal: principal,
		HallID:    strings.TrimSpace(req.HallID),
		Start:     start,
		End:       end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability declaration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("window_id", window.ID).InfoContext(r.Context(), "availability declared")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, availabilityWindowResponse{Window: toAvailabilityWindowDTO(window)})
}

func (h *MaintenanceHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hallID := strings.TrimSpace(r.URL.Query().Get("hall_id"))
	if hallID == "" {
		h.log(r.Context(), "ListAvailability", "error_kind", "bad_request").ErrorContext(r.Context(), "missing hall id for availability list")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHallID)
		return
	}

	logger := h.log(r.Context(), "ListAvailability", "hall_id", hallID)
	windows, err := h.service.ListAvailabilityForHall(r.Context(), hallID)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(windows)).InfoContext(r.Context(), "availability listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAvailabilityResponse{Windows: toAvailabilityWindowDTOs(windows)})
}

func (h *MaintenanceHandler) ScheduleMaintenance(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ScheduleMaintenance", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode maintenance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, end, err := parseInterval(req.Start, req.End)
	if err != nil {
		h.log(r.Context(), "ScheduleMaintenance", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse maintenance interval", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "ScheduleMaintenance", "principal_id", principal.UserID, "hall_id", req.HallID, "issue_id", req.IssueID)

	window, err := h.service.ScheduleMaintenance(r.Context(), application.ScheduleMaintenanceParams{
		Principal: principal,
		IssueID:   strings.TrimSpace(req.IssueID),
		HallID:    strings.TrimSpace(req.HallID),
		Start:     start,
		End:       end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance scheduling failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("window_id", window.ID).InfoContext(r.Context(), "maintenance scheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, maintenanceWindowResponse{Window: toMaintenanceWindowDTO(window)})
}

func (h *MaintenanceHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hallID := strings.TrimSpace(r.URL.Query().Get("hall_id"))
	if hallID == "" {
		h.log(r.Context(), "ListMaintenance", "error_kind", "bad_request").ErrorContext(r.Context(), "missing hall id for maintenance list")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHallID)
		return
	}

	logger := h.log(r.Context(), "ListMaintenance", "hall_id", hallID)
	windows, err := h.service.ListMaintenanceForHall(r.Context(), hallID)
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(windows)).InfoContext(r.Context(), "maintenance listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMaintenanceResponse{Windows: toMaintenanceWindowDTOs(windows)})
}

type windowRequest struct {
	HallID string `json:"hall_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type maintenanceRequest struct {
	IssueID string `json:"issue_id"`
	HallID  string `json:"hall_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type availabilityWindowResponse struct {
	Window availabilityWindowDTO `json:"window"`
}

type listAvailabilityResponse struct {
	Windows []availabilityWindowDTO `json:"windows"`
}

type maintenanceWindowResponse struct {
	Window maintenanceWindowDTO `json:"window"`
}

type listMaintenanceResponse struct {
	Windows []maintenanceWindowDTO `json:"windows"`
}

type availabilityWindowDTO struct {
	ID        string `json:"id"`
	HallID    string `json:"hall_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	CreatedAt string `json:"created_at"`
}

type maintenanceWindowDTO struct {
	ID          string `json:"id"`
	HallID      string `json:"hall_id"`
	SchedulerID string `json:"scheduler_id"`
	IssueID     string `json:"issue_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	CreatedAt   string `json:"created_at"`
}

func toAvailabilityWindowDTO(window application.AvailabilityWindow) availabilityWindowDTO {
	return availabilityWindowDTO{
		ID:        window.ID,
		HallID:    window.HallID,
		Start:     window.Start.UTC().Format(time.RFC3339Nano),
		End:       window.End.UTC().Format(time.RFC3339Nano),
		CreatedAt: window.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toAvailabilityWindowDTOs(windows []application.AvailabilityWindow) []availabilityWindowDTO {
	if len(windows) == 0 {
		return nil
	}
	out := make([]availabilityWindowDTO, 0, len(windows))
	for _, window := range windows {
		out = append(out, toAvailabilityWindowDTO(window))
	}
	return out
}

func toMaintenanceWindowDTO(window application.MaintenanceWindow) maintenanceWindowDTO {
	return maintenanceWindowDTO{
		ID:          window.ID,
		HallID:      window.HallID,
		SchedulerID: window.SchedulerID,
		IssueID:     window.IssueID,
		Start:       window.Start.UTC().Format(time.RFC3339Nano),
		End:         window.End.UTC().Format(time.RFC3339Nano),
		CreatedAt:   window.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toMaintenanceWindowDTOs(windows []application.MaintenanceWindow) []maintenanceWindowDTO {
	if len(windows) == 0 {
		return nil
	}
	out := make([]maintenanceWindowDTO, 0, len(windows))
	for _, window := range windows {
		out = append(out, toMaintenanceWindowDTO(window))
	}
	return out
}

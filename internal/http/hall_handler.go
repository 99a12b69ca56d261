package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/hall-booking/internal/application"
)

type hallService interface {
	CreateHall(ctx context.Context, params application.CreateHallParams) (application.Hall, error)
	UpdateHall(ctx context.Context, params application.UpdateHallParams) (application.Hall, error)
	DeleteHall(ctx context.Context, principal application.Principal, hallID string) error
	GetHall(ctx context.Context, hallID string) (application.Hall, error)
	ListHalls(ctx context.Context) ([]application.Hall, error)
	FilterHalls(ctx context.Context, filter application.HallFilter) ([]application.Hall, error)
}

type HallHandler struct {
	service   hallService
	responder responder
	logger    *slog.Logger
}

func NewHallHandler(service hallService, logger *slog.Logger) *HallHandler {
	base := defaultLogger(logger)
	return &HallHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *HallHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "HallHandler", operation, attrs...)
}

func (h *HallHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req hallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode hall request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	hall, err := h.service.CreateHall(r.Context(), application.CreateHallParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "hall creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("hall_id", hall.ID).InfoContext(r.Context(), "hall created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, hallResponse{Hall: toHallDTO(hall)})
}

func (h *HallHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hallID, ok := HallIDFromContext(r.Context())
	if !ok || strings.TrimSpace(hallID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing hall id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHallID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req hallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "hall_id", hallID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode hall update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "hall_id", hallID)

	hall, err := h.service.UpdateHall(r.Context(), application.UpdateHallParams{
		Principal: principal,
		HallID:    hallID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "hall update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "hall updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, hallResponse{Hall: toHallDTO(hall)})
}

func (h *HallHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hallID, ok := HallIDFromContext(r.Context())
	if !ok || strings.TrimSpace(hallID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing hall id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHallID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "hall_id", hallID)
	if err := h.service.DeleteHall(r.Context(), principal, hallID); err != nil {
		logger.ErrorContext(r.Context(), "hall delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "hall deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *HallHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hallID, ok := HallIDFromContext(r.Context())
	if !ok || strings.TrimSpace(hallID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing hall id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHallID)
		return
	}

	logger := h.log(r.Context(), "Get", "hall_id", hallID)
	hall, err := h.service.GetHall(r.Context(), hallID)
	if err != nil {
		logger.ErrorContext(r.Context(), "hall lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, hallResponse{Hall: toHallDTO(hall)})
}

// List serves both the plain catalog listing and the filtered variant; any
// recognized query parameter switches to filtering.
func (h *HallHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	logger := h.log(r.Context(), "List")

	var halls []application.Hall
	var err error
	if filter, filtered := hallFilterFromQuery(query); filtered {
		halls, err = h.service.FilterHalls(r.Context(), filter)
	} else {
		halls, err = h.service.ListHalls(r.Context())
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "hall list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(halls)).InfoContext(r.Context(), "halls listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listHallsResponse{Halls: toHallDTOs(halls)})
}

func hallFilterFromQuery(query map[string][]string) (application.HallFilter, bool) {
	get := func(key string) string {
		if values := query[key]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}

	var filter application.HallFilter
	filtered := false
	if v := get("type"); v != "" {
		filter.Type = application.HallType(strings.ToUpper(v))
		filtered = true
	}
	if v := get("min_capacity"); v != "" {
		if capacity, err := strconv.Atoi(v); err == nil {
			filter.MinCapacity = capacity
			filtered = true
		}
	}
	if v := get("location"); v != "" {
		filter.Location = v
		filtered = true
	}
	if v := get("max_rate_cents"); v != "" {
		if rate, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxRateCents = rate
			filtered = true
		}
	}
	return filter, filtered
}

type hallRequest struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

func (r hallRequest) toInput() application.HallInput {
	return application.HallInput{
		ID:       strings.TrimSpace(r.ID),
		Type:     application.HallType(strings.ToUpper(strings.TrimSpace(r.Type))),
		Location: strings.TrimSpace(r.Location),
	}
}

type hallResponse struct {
	Hall hallDTO `json:"hall"`
}

type listHallsResponse struct {
	Halls []hallDTO `json:"halls"`
}

type hallDTO struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Capacity  int    `json:"capacity"`
	RateCents int64  `json:"rate_cents"`
	Location  string `json:"location"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toHallDTO(hall application.Hall) hallDTO {
	return hallDTO{
		ID:        hall.ID,
		Type:      string(hall.Type),
		Capacity:  hall.Capacity,
		RateCents: hall.RateCents,
		Location:  hall.Location,
		CreatedAt: hall.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: hall.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toHallDTOs(halls []application.Hall) []hallDTO {
	if len(halls) == 0 {
		return nil
	}
	out := make([]hallDTO, 0, len(halls))
	for _, hall := range halls {
		out = append(out, toHallDTO(hall))
	}
	return out
}

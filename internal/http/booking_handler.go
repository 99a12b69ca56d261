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

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (application.CanceledBooking, error)
	ListBookingsForCustomer(ctx context.Context, principal application.Principal, customerID string) ([]application.Booking, error)
	IsHallAvailable(ctx context.Context, hallID string, start, end time.Time) (bool, error)
	CalculatePrice(ctx context.Context, hallID string, start, end time.Time) (int64, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, end, err := parseInterval(req.Start, req.End)
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse booking interval", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		customerID = principal.UserID
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "hall_id", req.HallID)

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal:  principal,
		CustomerID: customerID,
		HallID:     strings.TrimSpace(req.HallID),
		Start:      start,
		End:        end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), "Cancel", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id for cancel")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.UserID, "booking_id", bookingID)

	canceled, err := h.service.CancelBooking(r.Context(), principal, bookingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking canceled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, canceledBookingResponse{
		Booking:    toBookingDTO(canceled.Booking),
		CanceledAt: canceled.CanceledAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	if customerID == "" {
		customerID = principal.UserID
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "customer_id", customerID)

	bookings, err := h.service.ListBookingsForCustomer(r.Context(), principal, customerID)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

// Quote prices an interval without reserving it.
func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hallID, start, end, ok := h.hallIntervalFromRequest(w, r, "Quote")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Quote", "hall_id", hallID)
	total, err := h.service.CalculatePrice(r.Context(), hallID, start, end)
	if err != nil {
		logger.ErrorContext(r.Context(), "price quote failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, quoteResponse{HallID: hallID, TotalCents: total})
}

// Availability reports whether the hall admits a booking for the interval.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	hallID, start, end, ok := h.hallIntervalFromRequest(w, r, "Availability")
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Availability", "hall_id", hallID)
	available, err := h.service.IsHallAvailable(r.Context(), hallID, start, end)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{HallID: hallID, Available: available})
}

func (h *BookingHandler) hallIntervalFromRequest(w http.ResponseWriter, r *http.Request, operation string) (string, time.Time, time.Time, bool) {
	hallID, ok := HallIDFromContext(r.Context())
	if !ok || strings.TrimSpace(hallID) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing hall id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHallID)
		return "", time.Time{}, time.Time{}, false
	}

	query := r.URL.Query()
	start, end, err := parseInterval(query.Get("start"), query.Get("end"))
	if err != nil {
		h.log(r.Context(), operation, "hall_id", hallID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse interval", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return "", time.Time{}, time.Time{}, false
	}
	return hallID, start, end, true
}

func parseInterval(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(startStr))
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidTimeRange
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(endStr))
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidTimeRange
	}
	return start, end, nil
}

type bookingRequest struct {
	CustomerID string `json:"customer_id"`
	HallID     string `json:"hall_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type canceledBookingResponse struct {
	Booking    bookingDTO `json:"booking"`
	CanceledAt string     `json:"canceled_at"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type quoteResponse struct {
	HallID     string `json:"hall_id"`
	TotalCents int64  `json:"total_cents"`
}

type availabilityResponse struct {
	HallID    string `json:"hall_id"`
	Available bool   `json:"available"`
}

type bookingDTO struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	HallID     string `json:"hall_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	TotalCents int64  `json:"total_cents"`
	CreatedAt  string `json:"created_at"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:         booking.ID,
		CustomerID: booking.CustomerID,
		HallID:     booking.HallID,
		Start:      booking.Start.UTC().Format(time.RFC3339Nano),
		End:        booking.End.UTC().Format(time.RFC3339Nano),
		TotalCents: booking.TotalCents,
		CreatedAt:  booking.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}

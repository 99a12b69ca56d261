package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/hall-booking/internal/application"
	"github.com/example/hall-booking/internal/interval"
)

type fakeHallService struct {
	createErr  error
	deleteErr  error
	hall       application.Hall
	halls      []application.Hall
	lastFilter *application.HallFilter
	lastHallID string
}

func (f *fakeHallService) CreateHall(ctx context.Context, params application.CreateHallParams) (application.Hall, error) {
	if f.createErr != nil {
		return application.Hall{}, f.createErr
	}
	return f.hall, nil
}

func (f *fakeHallService) UpdateHall(ctx context.Context, params application.UpdateHallParams) (application.Hall, error) {
	f.lastHallID = params.HallID
	return f.hall, nil
}

func (f *fakeHallService) DeleteHall(ctx context.Context, principal application.Principal, hallID string) error {
	f.lastHallID = hallID
	return f.deleteErr
}

func (f *fakeHallService) GetHall(ctx context.Context, hallID string) (application.Hall, error) {
	f.lastHallID = hallID
	if f.hall.ID == "" {
		return application.Hall{}, application.ErrNotFound
	}
	return f.hall, nil
}

func (f *fakeHallService) ListHalls(ctx context.Context) ([]application.Hall, error) {
	return f.halls, nil
}

func (f *fakeHallService) FilterHalls(ctx context.Context, filter application.HallFilter) ([]application.Hall, error) {
	f.lastFilter = &filter
	return f.halls, nil
}

type fakeBookingService struct {
	booking    application.Booking
	createErr  error
	cancelErr  error
	total      int64
	available  bool
	lastHallID string
	lastStart  time.Time
	lastEnd    time.Time
}

func (f *fakeBookingService) CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error) {
	if f.createErr != nil {
		return application.Booking{}, f.createErr
	}
	return f.booking, nil
}

func (f *fakeBookingService) CancelBooking(ctx context.Context, principal application.Principal, bookingID string) (application.CanceledBooking, error) {
	if f.cancelErr != nil {
		return application.CanceledBooking{}, f.cancelErr
	}
	return application.CanceledBooking{Booking: f.booking, CanceledAt: time.Now()}, nil
}

func (f *fakeBookingService) ListBookingsForCustomer(ctx context.Context, principal application.Principal, customerID string) ([]application.Booking, error) {
	return []application.Booking{f.booking}, nil
}

func (f *fakeBookingService) IsHallAvailable(ctx context.Context, hallID string, start, end time.Time) (bool, error) {
	f.lastHallID, f.lastStart, f.lastEnd = hallID, start, end
	return f.available, nil
}

func (f *fakeBookingService) CalculatePrice(ctx context.Context, hallID string, start, end time.Time) (int64, error) {
	f.lastHallID, f.lastStart, f.lastEnd = hallID, start, end
	return f.total, nil
}

type fakeIssueService struct {
	issue     application.Issue
	assignErr error
	lastID    string
}

func (f *fakeIssueService) ReportIssue(ctx context.Context, params application.ReportIssueParams) (application.Issue, error) {
	return f.issue, nil
}

func (f *fakeIssueService) AssignIssue(ctx context.Context, params application.AssignIssueParams) (application.Issue, error) {
	f.lastID = params.IssueID
	if f.assignErr != nil {
		return application.Issue{}, f.assignErr
	}
	return f.issue, nil
}

func (f *fakeIssueService) ListIssues(ctx context.Context, principal application.Principal, status application.IssueStatus) ([]application.Issue, error) {
	return []application.Issue{f.issue}, nil
}

func newTestRouter(halls *fakeHallService, bookings *fakeBookingService, issues *fakeIssueService) http.Handler {
	cfg := RouterConfig{}
	if halls != nil {
		cfg.Halls = NewHallHandler(halls, nil)
	}
	if bookings != nil {
		cfg.Bookings = NewBookingHandler(bookings, nil)
	}
	if issues != nil {
		cfg.Issues = NewIssueHandler(issues, nil)
	}
	return NewRouter(cfg)
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestHallHandlers(t *testing.T) {
	t.Parallel()

	t.Run("create returns 201 with the hall payload", func(t *testing.T) {
		t.Parallel()

		service := &fakeHallService{hall: application.Hall{ID: "hall-1", Type: application.HallTypeMeetingRoom, Capacity: 30, RateCents: 5000, Location: "Default Location"}}
		router := newTestRouter(service, nil, nil)

		body := strings.NewReader(`{"id":"hall-1","type":"meeting_room"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/halls", body))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", recorder.Code)
		}
		var resp hallResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Hall.ID != "hall-1" || resp.Hall.RateCents != 5000 {
			t.Errorf("Unexpected payload: %+v", resp.Hall)
		}
	})

	t.Run("unauthorized role maps to 403", func(t *testing.T) {
		t.Parallel()

		service := &fakeHallService{createErr: application.ErrUnauthorized}
		router := newTestRouter(service, nil, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/halls", strings.NewReader(`{}`)))

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("Expected 403, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "AUTH_FORBIDDEN" {
			t.Errorf("Expected AUTH_FORBIDDEN, got %q", resp.ErrorCode)
		}
	})

	t.Run("duplicate id maps to 409", func(t *testing.T) {
		t.Parallel()

		service := &fakeHallService{createErr: application.ErrAlreadyExists}
		router := newTestRouter(service, nil, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/halls", strings.NewReader(`{}`)))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d", recorder.Code)
		}
	})

	t.Run("validation error maps to 422 with field details", func(t *testing.T) {
		t.Parallel()

		service := &fakeHallService{createErr: &application.ValidationError{FieldErrors: map[string]string{"id": "id is required"}}}
		router := newTestRouter(service, nil, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/halls", strings.NewReader(`{}`)))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Expected 422, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.Errors["id"] != "id is required" {
			t.Errorf("Expected field error for id, got %+v", resp.Errors)
		}
	})

	t.Run("delete of an in-use hall maps to 409", func(t *testing.T) {
		t.Parallel()

		service := &fakeHallService{deleteErr: application.ErrHallInUse}
		router := newTestRouter(service, nil, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/halls/hall-1", nil))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "HALL_IN_USE" {
			t.Errorf("Expected HALL_IN_USE, got %q", resp.ErrorCode)
		}
		if service.lastHallID != "hall-1" {
			t.Errorf("Expected hall id extracted from path, got %q", service.lastHallID)
		}
	})

	t.Run("missing hall maps to 404", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&fakeHallService{}, nil, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/halls/ghost", nil))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", recorder.Code)
		}
	})

	t.Run("query parameters switch listing to the filter path", func(t *testing.T) {
		t.Parallel()

		service := &fakeHallService{}
		router := newTestRouter(service, nil, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/halls?type=auditorium&min_capacity=500", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", recorder.Code)
		}
		if service.lastFilter == nil {
			t.Fatal("Expected FilterHalls to be used")
		}
		if service.lastFilter.Type != application.HallTypeAuditorium || service.lastFilter.MinCapacity != 500 {
			t.Errorf("Unexpected filter: %+v", service.lastFilter)
		}
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&fakeHallService{}, nil, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/halls", strings.NewReader(`{`)))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", recorder.Code)
		}
	})
}

func TestBookingHandlers(t *testing.T) {
	t.Parallel()

	t.Run("booking conflict maps to 409 with the collection code", func(t *testing.T) {
		t.Parallel()

		service := &fakeBookingService{createErr: &application.ConflictError{Kind: interval.KindMaintenance, HallID: "hall-1", WithID: "m-1"}}
		router := newTestRouter(nil, service, nil)

		body := strings.NewReader(`{"hall_id":"hall-1","start":"2025-03-03T10:00:00Z","end":"2025-03-03T12:00:00Z"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings", body))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "HALL_UNDER_MAINTENANCE" {
			t.Errorf("Expected HALL_UNDER_MAINTENANCE, got %q", resp.ErrorCode)
		}
	})

	t.Run("cancellation policy refusal maps to 422", func(t *testing.T) {
		t.Parallel()

		service := &fakeBookingService{cancelErr: &application.PolicyError{
			Reason:  application.PolicyCancellationTooLate,
			Message: "bookings can only be canceled more than 72 hours before start",
		}}
		router := newTestRouter(nil, service, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/bookings/b-1", nil))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Expected 422, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "POLICY_CANCELLATION_TOO_LATE" {
			t.Errorf("Expected POLICY_CANCELLATION_TOO_LATE, got %q", resp.ErrorCode)
		}
	})

	t.Run("quote parses the interval from the query", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(nil, &fakeBookingService{total: 15000}, nil)

		target := "/halls/hall-1/quote?start=2025-03-03T09:00:00Z&end=2025-03-03T12:30:00Z"
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", recorder.Code)
		}
		var resp quoteResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.HallID != "hall-1" || resp.TotalCents != 15000 {
			t.Errorf("Unexpected quote: %+v", resp)
		}
	})

	t.Run("quote with malformed timestamps maps to 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(nil, &fakeBookingService{}, nil)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/halls/hall-1/quote?start=tomorrow&end=later", nil))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", recorder.Code)
		}
	})

	t.Run("availability query reports the engine verdict", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(nil, &fakeBookingService{available: true}, nil)

		target := "/halls/hall-1/availability?start=2025-03-03T10:00:00Z&end=2025-03-03T12:00:00Z"
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", recorder.Code)
		}
		var resp availabilityResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !resp.Available {
			t.Error("Expected available=true")
		}
	})
}

func TestIssueHandlers(t *testing.T) {
	t.Parallel()

	t.Run("assignment extracts the issue id from the path", func(t *testing.T) {
		t.Parallel()

		service := &fakeIssueService{issue: application.Issue{ID: "issue-1", Status: application.IssueAssigned}}
		router := newTestRouter(nil, nil, service)

		body := strings.NewReader(`{"scheduler_id":"sched-1"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/issues/issue-1/assignee", body))

		if recorder.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", recorder.Code)
		}
		if service.lastID != "issue-1" {
			t.Errorf("Expected issue id from path, got %q", service.lastID)
		}
	})

	t.Run("assignment policy refusals map to 422", func(t *testing.T) {
		t.Parallel()

		service := &fakeIssueService{assignErr: &application.PolicyError{
			Reason:  application.PolicySchedulerBlocked,
			Message: "the scheduler account is blocked",
		}}
		router := newTestRouter(nil, nil, service)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/issues/issue-1/assignee", strings.NewReader(`{}`)))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("Expected 422, got %d", recorder.Code)
		}
		if resp := decodeError(t, recorder); resp.ErrorCode != "POLICY_SCHEDULER_BLOCKED" {
			t.Errorf("Expected POLICY_SCHEDULER_BLOCKED, got %q", resp.ErrorCode)
		}
	})

	t.Run("unknown subresources are 404", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(nil, nil, &fakeIssueService{})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/issues/issue-1/resolution", nil))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", recorder.Code)
		}
	})
}

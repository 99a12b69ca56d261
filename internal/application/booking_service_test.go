package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

type bookingRepoStub struct {
	bookings map[string]Booking
	archived []CanceledBooking

	appendErr  error
	archiveErr error
	listErr    error
}

func newBookingRepoStub(bookings ...Booking) *bookingRepoStub {
	stub := &bookingRepoStub{bookings: make(map[string]Booking)}
	for _, b := range bookings {
		stub.bookings[b.ID] = b
	}
	return stub
}

func (r *bookingRepoStub) AppendBooking(ctx context.Context, booking Booking) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *bookingRepoStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	booking, ok := r.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (r *bookingRepoStub) ListBookingsForHall(ctx context.Context, hallID string) ([]Booking, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Booking
	for _, b := range r.bookings {
		if b.HallID == hallID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *bookingRepoStub) ListBookingsForCustomer(ctx context.Context, customerID string) ([]Booking, error) {
	var out []Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *bookingRepoStub) ArchiveBooking(ctx context.Context, id string, canceledAt time.Time) (CanceledBooking, error) {
	if r.archiveErr != nil {
		return CanceledBooking{}, r.archiveErr
	}
	booking, ok := r.bookings[id]
	if !ok {
		return CanceledBooking{}, persistence.ErrNotFound
	}
	delete(r.bookings, id)
	canceled := CanceledBooking{Booking: booking, CanceledAt: canceledAt}
	r.archived = append(r.archived, canceled)
	return canceled, nil
}

type maintenanceIndexStub struct {
	windows []MaintenanceWindow
	err     error
}

func (s *maintenanceIndexStub) ListWindowsForHall(ctx context.Context, hallID string) ([]MaintenanceWindow, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []MaintenanceWindow
	for _, w := range s.windows {
		if w.HallID == hallID {
			out = append(out, w)
		}
	}
	return out, nil
}

type hallCatalogStub struct {
	halls map[string]Hall
}

func newHallCatalogStub(halls ...Hall) *hallCatalogStub {
	stub := &hallCatalogStub{halls: make(map[string]Hall)}
	for _, h := range halls {
		stub.halls[h.ID] = h
	}
	return stub
}

// The stub reports a missing hall with the persistence sentinel, exactly as
// the production repository adapters do; services must translate it.
func (s *hallCatalogStub) GetHall(ctx context.Context, id string) (Hall, error) {
	hall, ok := s.halls[id]
	if !ok {
		return Hall{}, persistence.ErrNotFound
	}
	return hall, nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

func TestBookingService_CreateBooking(t *testing.T) {
	hall := Hall{ID: "H1", Type: HallTypeBanquetHall, Capacity: 300, RateCents: 10000, Location: DefaultLocation}

	newService := func(repo *bookingRepoStub, maintenance *maintenanceIndexStub) *BookingService {
		now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
		return NewBookingService(repo, maintenance, newHallCatalogStub(hall), nil,
			func() string { return "b-new" }, func() time.Time { return now })
	}

	t.Run("customers cannot book on behalf of others", func(t *testing.T) {
		svc := newService(newBookingRepoStub(), &maintenanceIndexStub{})

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal:  Principal{UserID: "c-1", Role: RoleCustomer},
			CustomerID: "c-2",
			HallID:     "H1",
			Start:      mustTime(t, "2025-03-10T09:00:00Z"),
			End:        mustTime(t, "2025-03-10T11:00:00Z"),
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects an inverted interval", func(t *testing.T) {
		svc := newService(newBookingRepoStub(), &maintenanceIndexStub{})

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "c-1", Role: RoleCustomer},
			HallID:    "H1",
			Start:     mustTime(t, "2025-03-10T11:00:00Z"),
			End:       mustTime(t, "2025-03-10T09:00:00Z"),
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("reports missing halls", func(t *testing.T) {
		svc := newService(newBookingRepoStub(), &maintenanceIndexStub{})

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "c-1", Role: RoleCustomer},
			HallID:    "missing",
			Start:     mustTime(t, "2025-03-10T09:00:00Z"),
			End:       mustTime(t, "2025-03-10T11:00:00Z"),
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("prices whole hours at the hall rate", func(t *testing.T) {
		repo := newBookingRepoStub()
		svc := newService(repo, &maintenanceIndexStub{})

		booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "c-1", Role: RoleCustomer},
			HallID:    "H1",
			Start:     mustTime(t, "2025-03-10T09:00:00Z"),
			End:       mustTime(t, "2025-03-10T11:00:00Z"),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if booking.TotalCents != 20000 {
			t.Fatalf("expected $200.00 for two hours at $100.00/hr, got %d cents", booking.TotalCents)
		}
		if booking.ID != "b-new" {
			t.Fatalf("expected generated booking id, got %q", booking.ID)
		}
		if _, ok := repo.bookings["b-new"]; !ok {
			t.Fatalf("expected booking to be persisted")
		}
	})

	t.Run("truncates partial hours from the price", func(t *testing.T) {
		meetingRoom := Hall{ID: "M1", Type: HallTypeMeetingRoom, RateCents: 5000}
		svc := NewBookingService(newBookingRepoStub(), &maintenanceIndexStub{}, newHallCatalogStub(meetingRoom), nil,
			func() string { return "b-new" }, nil)

		booking, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "c-1", Role: RoleCustomer},
			HallID:    "M1",
			Start:     mustTime(t, "2025-03-10T09:00:00Z"),
			End:       mustTime(t, "2025-03-10T12:30:00Z"),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if booking.TotalCents != 15000 {
			t.Fatalf("expected $150.00 for 3.5 hours at $50.00/hr, got %d cents", booking.TotalCents)
		}
	})

	t.Run("refuses overlap with an existing booking", func(t *testing.T) {
		existing := Booking{
			ID:         "b-1",
			CustomerID: "c-1",
			HallID:     "H1",
			Start:      mustTime(t, "2025-03-10T09:00:00Z"),
			End:        mustTime(t, "2025-03-10T11:00:00Z"),
		}
		svc := newService(newBookingRepoStub(existing), &maintenanceIndexStub{})

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "c-2", Role: RoleCustomer},
			HallID:    "H1",
			Start:     mustTime(t, "2025-03-10T10:00:00Z"),
			End:       mustTime(t, "2025-03-10T12:00:00Z"),
		})

		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.Kind != "booking" || cErr.WithID != "b-1" {
			t.Fatalf("expected booking conflict with b-1, got %+v", cErr)
		}
	})

	t.Run("reports a maintenance overlap as its own kind", func(t *testing.T) {
		maintenance := &maintenanceIndexStub{windows: []MaintenanceWindow{{
			ID:     "m-1",
			HallID: "H1",
			Start:  mustTime(t, "2025-03-10T08:00:00Z"),
			End:    mustTime(t, "2025-03-10T10:00:00Z"),
		}}}
		svc := newService(newBookingRepoStub(), maintenance)

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "c-1", Role: RoleCustomer},
			HallID:    "H1",
			Start:     mustTime(t, "2025-03-10T09:00:00Z"),
			End:       mustTime(t, "2025-03-10T11:00:00Z"),
		})

		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.Kind != "maintenance" {
			t.Fatalf("expected maintenance conflict, got %q", cErr.Kind)
		}
	})

	t.Run("admits touching intervals", func(t *testing.T) {
		existing := Booking{
			ID:     "b-1",
			HallID: "H1",
			Start:  mustTime(t, "2025-03-10T09:00:00Z"),
			End:    mustTime(t, "2025-03-10T11:00:00Z"),
		}
		svc := newService(newBookingRepoStub(existing), &maintenanceIndexStub{})

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "c-2", Role: RoleCustomer},
			HallID:    "H1",
			Start:     mustTime(t, "2025-03-10T11:00:00Z"),
			End:       mustTime(t, "2025-03-10T12:00:00Z"),
		})
		if err != nil {
			t.Fatalf("expected touching endpoints to be admissible, got %v", err)
		}
	})
}

func TestBookingService_CalculatePrice(t *testing.T) {
	hall := Hall{ID: "H1", Type: HallTypeBanquetHall, RateCents: 10000}
	svc := NewBookingService(newBookingRepoStub(), &maintenanceIndexStub{}, newHallCatalogStub(hall), nil, nil, nil)

	t.Run("quotes whole hours at the hall rate", func(t *testing.T) {
		price, err := svc.CalculatePrice(context.Background(), "H1",
			mustTime(t, "2025-03-10T09:00:00Z"), mustTime(t, "2025-03-10T11:30:00Z"))
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if price != 20000 {
			t.Fatalf("expected $200.00 for 2.5 hours at $100.00/hr, got %d cents", price)
		}
	})

	t.Run("reports missing halls", func(t *testing.T) {
		_, err := svc.CalculatePrice(context.Background(), "missing",
			mustTime(t, "2025-03-10T09:00:00Z"), mustTime(t, "2025-03-10T11:00:00Z"))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	newService := func(repo *bookingRepoStub) *BookingService {
		return NewBookingService(repo, &maintenanceIndexStub{}, newHallCatalogStub(), nil, nil,
			func() time.Time { return now })
	}

	t.Run("reports missing bookings", func(t *testing.T) {
		svc := newService(newBookingRepoStub())

		_, err := svc.CancelBooking(context.Background(), Principal{UserID: "c-1", Role: RoleCustomer}, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("only the owning customer may cancel", func(t *testing.T) {
		booking := Booking{ID: "b-1", CustomerID: "c-1", HallID: "H1", Start: now.Add(120 * time.Hour)}
		svc := newService(newBookingRepoStub(booking))

		_, err := svc.CancelBooking(context.Background(), Principal{UserID: "c-2", Role: RoleCustomer}, "b-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects cancellation within three days of the start", func(t *testing.T) {
		booking := Booking{ID: "b-1", CustomerID: "c-1", HallID: "H1", Start: now.Add(72 * time.Hour)}
		svc := newService(newBookingRepoStub(booking))

		_, err := svc.CancelBooking(context.Background(), Principal{UserID: "c-1", Role: RoleCustomer}, "b-1")

		var pErr *PolicyError
		if !errors.As(err, &pErr) {
			t.Fatalf("expected PolicyError, got %v", err)
		}
		if pErr.Reason != PolicyCancellationTooLate {
			t.Fatalf("expected cancellation_too_late, got %q", pErr.Reason)
		}
	})

	t.Run("archives the booking and fails a second cancel", func(t *testing.T) {
		booking := Booking{ID: "b-1", CustomerID: "c-1", HallID: "H1", Start: now.Add(72*time.Hour + time.Minute)}
		repo := newBookingRepoStub(booking)
		svc := newService(repo)

		canceled, err := svc.CancelBooking(context.Background(), Principal{UserID: "c-1", Role: RoleCustomer}, "b-1")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if canceled.ID != "b-1" || !canceled.CanceledAt.Equal(now) {
			t.Fatalf("expected archived booking with cancellation time, got %+v", canceled)
		}
		if len(repo.archived) != 1 {
			t.Fatalf("expected one archived record, got %d", len(repo.archived))
		}

		_, err = svc.CancelBooking(context.Background(), Principal{UserID: "c-1", Role: RoleCustomer}, "b-1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected second cancel to report ErrNotFound, got %v", err)
		}
	})

	t.Run("managers may cancel any booking", func(t *testing.T) {
		booking := Booking{ID: "b-1", CustomerID: "c-1", HallID: "H1", Start: now.Add(96 * time.Hour)}
		svc := newService(newBookingRepoStub(booking))

		if _, err := svc.CancelBooking(context.Background(), Principal{UserID: "m-1", Role: RoleManager}, "b-1"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}

func TestBookingService_Queries(t *testing.T) {
	hall := Hall{ID: "H1", RateCents: 10000}
	booked := Booking{
		ID:     "b-1",
		HallID: "H1",
		Start:  mustTime(t, "2025-03-10T09:00:00Z"),
		End:    mustTime(t, "2025-03-10T11:00:00Z"),
	}

	t.Run("IsHallAvailable reflects committed bookings", func(t *testing.T) {
		svc := NewBookingService(newBookingRepoStub(booked), &maintenanceIndexStub{}, newHallCatalogStub(hall), nil, nil, nil)

		available, err := svc.IsHallAvailable(context.Background(), "H1",
			mustTime(t, "2025-03-10T10:00:00Z"), mustTime(t, "2025-03-10T12:00:00Z"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if available {
			t.Fatalf("expected overlapping interval to be unavailable")
		}

		available, err = svc.IsHallAvailable(context.Background(), "H1",
			mustTime(t, "2025-03-10T11:00:00Z"), mustTime(t, "2025-03-10T12:00:00Z"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !available {
			t.Fatalf("expected adjacent interval to be available")
		}
	})

	t.Run("CalculatePrice quotes without committing", func(t *testing.T) {
		repo := newBookingRepoStub()
		svc := NewBookingService(repo, &maintenanceIndexStub{}, newHallCatalogStub(hall), nil, nil, nil)

		price, err := svc.CalculatePrice(context.Background(), "H1",
			mustTime(t, "2025-03-10T09:00:00Z"), mustTime(t, "2025-03-10T12:30:00Z"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if price != 30000 {
			t.Fatalf("expected 30000 cents for three whole hours, got %d", price)
		}
		if len(repo.bookings) != 0 {
			t.Fatalf("expected no booking to be written")
		}
	})

	t.Run("customers may only list their own bookings", func(t *testing.T) {
		svc := NewBookingService(newBookingRepoStub(), &maintenanceIndexStub{}, newHallCatalogStub(), nil, nil, nil)

		_, err := svc.ListBookingsForCustomer(context.Background(), Principal{UserID: "c-1", Role: RoleCustomer}, "c-2")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/hall-booking/internal/interval"
	"github.com/example/hall-booking/internal/persistence"
)

// cancellationNotice is how far ahead of the booking start a cancellation
// must arrive.
const cancellationNotice = 72 * time.Hour

// BookingRepository captures the persistence interactions needed by the
// booking lifecycle.
type BookingRepository interface {
	AppendBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookingsForHall(ctx context.Context, hallID string) ([]Booking, error)
	ListBookingsForCustomer(ctx context.Context, customerID string) ([]Booking, error)
	ArchiveBooking(ctx context.Context, id string, canceledAt time.Time) (CanceledBooking, error)
}

// MaintenanceIndex exposes the maintenance windows a booking must avoid.
type MaintenanceIndex interface {
	ListWindowsForHall(ctx context.Context, hallID string) ([]MaintenanceWindow, error)
}

// HallCatalog exposes hall lookups to the booking lifecycle. The catalog is
// owned by HallService; bookings only read it.
type HallCatalog interface {
	GetHall(ctx context.Context, id string) (Hall, error)
}

// BookingService creates and cancels bookings through the conflict engine.
type BookingService struct {
	bookings    BookingRepository
	maintenance MaintenanceIndex
	halls       HallCatalog
	locks       *HallLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations. The lock set
// must be the one shared with the maintenance service.
func NewBookingService(bookings BookingRepository, maintenance MaintenanceIndex, halls HallCatalog, locks *HallLocks, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, maintenance, halls, locks, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, maintenance MaintenanceIndex, halls HallCatalog, locks *HallLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if locks == nil {
		locks = NewHallLocks()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		maintenance: maintenance,
		halls:       halls,
		locks:       locks,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking commits a booking after the conflict engine admits the
// interval. Customers book for themselves; managers may book on behalf of
// any customer. The admissibility check and the write run under the hall
// lock as one unit.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil || s.bookings == nil || s.halls == nil {
		err = fmt.Errorf("booking service not configured")
		return
	}

	customerID := params.CustomerID
	if customerID == "" {
		customerID = params.Principal.UserID
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"customer_id", customerID,
		"hall_id", params.HallID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID, "total_cents", booking.TotalCents).InfoContext(ctx, "booking created")
	}()

	switch params.Principal.Role {
	case RoleCustomer:
		if customerID != params.Principal.UserID {
			err = ErrUnauthorized
			return
		}
	case RoleManager:
	default:
		err = ErrUnauthorized
		return
	}

	if !params.Start.Before(params.End) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		err = vErr
		return
	}

	var hall Hall
	hall, err = s.halls.GetHall(ctx, params.HallID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	err = s.locks.withHallLock(params.HallID, func() error {
		proposed := interval.Span{HallID: params.HallID, Start: params.Start, End: params.End}

		bookingSpans, lockErr := s.bookingSpans(ctx, params.HallID)
		if lockErr != nil {
			return lockErr
		}
		maintenanceSpans, lockErr := s.maintenanceSpans(ctx, params.HallID)
		if lockErr != nil {
			return lockErr
		}

		if c := interval.CheckBookingAdmissible(bookingSpans, maintenanceSpans, proposed); c != nil {
			return &ConflictError{Kind: c.Kind, HallID: c.HallID, WithID: c.WithID}
		}

		booking = Booking{
			ID:         s.idGenerator(),
			CustomerID: customerID,
			HallID:     params.HallID,
			Start:      params.Start,
			End:        params.End,
			TotalCents: hall.RateCents * interval.WholeHours(params.Start, params.End),
			CreatedAt:  s.now(),
		}
		return s.bookings.AppendBooking(ctx, booking)
	})
	if err != nil {
		err = mapRepoError(err)
		booking = Booking{}
		return
	}
	return
}

// CancelBooking moves a booking to the cancellation history. Cancellation is
// allowed only while more than three days remain before the booking starts;
// after that the booking is locked in. A second cancellation of the same id
// reports NotFound.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, bookingID string) (canceled CanceledBooking, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking canceled")
	}()

	var booking Booking
	booking, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	switch principal.Role {
	case RoleCustomer:
		if booking.CustomerID != principal.UserID {
			err = ErrUnauthorized
			return
		}
	case RoleManager:
	default:
		err = ErrUnauthorized
		return
	}

	now := s.now()
	if !booking.Start.After(now.Add(cancellationNotice)) {
		err = policyErr(PolicyCancellationTooLate, "bookings can only be canceled more than 3 days before the start time")
		return
	}

	canceled, err = s.bookings.ArchiveBooking(ctx, bookingID, now)
	if err != nil {
		err = mapRepoError(err)
		canceled = CanceledBooking{}
		return
	}
	return
}

// IsHallAvailable reports whether the interval would be admitted right now.
// It is a pure query for booking-intent screens; the answer can go stale the
// moment another booking commits.
func (s *BookingService) IsHallAvailable(ctx context.Context, hallID string, start, end time.Time) (bool, error) {
	if s == nil || s.bookings == nil {
		return false, fmt.Errorf("booking repository not configured")
	}

	bookingSpans, err := s.bookingSpans(ctx, hallID)
	if err != nil {
		return false, err
	}
	maintenanceSpans, err := s.maintenanceSpans(ctx, hallID)
	if err != nil {
		return false, err
	}

	proposed := interval.Span{HallID: hallID, Start: start, End: end}
	return interval.CheckBookingAdmissible(bookingSpans, maintenanceSpans, proposed) == nil, nil
}

// CalculatePrice quotes the price of an interval without committing it:
// hourly rate times whole hours, partial hours truncated.
func (s *BookingService) CalculatePrice(ctx context.Context, hallID string, start, end time.Time) (int64, error) {
	if s == nil || s.halls == nil {
		return 0, fmt.Errorf("hall catalog not configured")
	}

	hall, err := s.halls.GetHall(ctx, hallID)
	if err != nil {
		return 0, mapRepoError(err)
	}

	if !start.Before(end) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return 0, vErr
	}

	return hall.RateCents * interval.WholeHours(start, end), nil
}

// ListBookingsForCustomer returns the customer's active bookings ordered by
// start time.
func (s *BookingService) ListBookingsForCustomer(ctx context.Context, principal Principal, customerID string) ([]Booking, error) {
	if s == nil || s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}
	if principal.Role == RoleCustomer && principal.UserID != customerID {
		return nil, ErrUnauthorized
	}

	bookings, err := s.bookings.ListBookingsForCustomer(ctx, customerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return bookings, nil
}

func (s *BookingService) bookingSpans(ctx context.Context, hallID string) ([]interval.Span, error) {
	existing, err := s.bookings.ListBookingsForHall(ctx, hallID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(existing))
	for _, b := range existing {
		spans = append(spans, interval.Span{ID: b.ID, HallID: b.HallID, Start: b.Start, End: b.End})
	}
	return spans, nil
}

func (s *BookingService) maintenanceSpans(ctx context.Context, hallID string) ([]interval.Span, error) {
	if s.maintenance == nil {
		return nil, nil
	}
	windows, err := s.maintenance.ListWindowsForHall(ctx, hallID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(windows))
	for _, w := range windows {
		spans = append(spans, interval.Span{ID: w.ID, HallID: w.HallID, Start: w.Start, End: w.End})
	}
	return spans, nil
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

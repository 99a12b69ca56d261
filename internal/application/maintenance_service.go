package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/hall-booking/internal/interval"
)

// Business hours for availability windows, inclusive on both ends.
const (
	businessDayOpenMinute  = 8 * 60
	businessDayCloseMinute = 18 * 60
)

// AvailabilityRepository stores declared availability windows.
type AvailabilityRepository interface {
	AppendWindow(ctx context.Context, window AvailabilityWindow) error
	ListWindowsForHall(ctx context.Context, hallID string) ([]AvailabilityWindow, error)
}

// MaintenanceRepository stores maintenance windows. Appending a window and
// advancing the linked issue happen in one transaction.
type MaintenanceRepository interface {
	AppendWindowAndUpdateIssue(ctx context.Context, window MaintenanceWindow, issue Issue) error
	ListWindowsForHall(ctx context.Context, hallID string) ([]MaintenanceWindow, error)
}

// BookingIndex exposes the committed bookings a maintenance window must avoid.
type BookingIndex interface {
	ListBookingsForHall(ctx context.Context, hallID string) ([]Booking, error)
}

// IssueDirectory exposes issue lookups to the maintenance scheduler.
type IssueDirectory interface {
	GetIssue(ctx context.Context, id string) (Issue, error)
}

// MaintenanceService declares availability windows and schedules maintenance
// against assigned issues.
type MaintenanceService struct {
	availability AvailabilityRepository
	maintenance  MaintenanceRepository
	bookings     BookingIndex
	issues       IssueDirectory
	halls        HallCatalog
	locks        *HallLocks
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewMaintenanceService wires dependencies for availability and maintenance
// scheduling. The lock set must be the one shared with the booking service.
func NewMaintenanceService(availability AvailabilityRepository, maintenance MaintenanceRepository, bookings BookingIndex, issues IssueDirectory, halls HallCatalog, locks *HallLocks, idGenerator func() string, now func() time.Time) *MaintenanceService {
	return NewMaintenanceServiceWithLogger(availability, maintenance, bookings, issues, halls, locks, idGenerator, now, nil)
}

// NewMaintenanceServiceWithLogger wires dependencies with a specified logger.
func NewMaintenanceServiceWithLogger(availability AvailabilityRepository, maintenance MaintenanceRepository, bookings BookingIndex, issues IssueDirectory, halls HallCatalog, locks *HallLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	if locks == nil {
		locks = NewHallLocks()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		availability: availability,
		maintenance:  maintenance,
		bookings:     bookings,
		issues:       issues,
		halls:        halls,
		locks:        locks,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *MaintenanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MaintenanceService", operation, attrs...)
}

// DeclareAvailability reserves a hall for non-booking use over a date range.
// Checks run in order and the first failure is reported: hall existence,
// interval shape, weekday rule, business-hours rule, then date-granularity
// overlap with existing windows for the hall.
func (s *MaintenanceService) DeclareAvailability(ctx context.Context, params DeclareAvailabilityParams) (window AvailabilityWindow, err error) {
	if s == nil || s.availability == nil || s.halls == nil {
		err = fmt.Errorf("maintenance service not configured")
		return
	}

	logger := s.loggerWith(ctx, "DeclareAvailability",
		"principal_id", params.Principal.UserID,
		"hall_id", params.HallID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to declare availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("window_id", window.ID).InfoContext(ctx, "availability declared")
	}()

	if params.Principal.Role != RoleScheduler {
		err = ErrUnauthorized
		return
	}

	if _, err = s.halls.GetHall(ctx, params.HallID); err != nil {
		err = mapRepoError(err)
		return
	}

	if !params.Start.Before(params.End) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		err = vErr
		return
	}

	if !isWeekday(params.Start) || !isWeekday(params.End) {
		err = policyErr(PolicyNotWeekday, "availability must start and end on a weekday")
		return
	}
	if !withinBusinessHours(params.Start) || !withinBusinessHours(params.End) {
		err = policyErr(PolicyOutsideBusinessHours, "availability must fall within business hours (08:00-18:00)")
		return
	}

	err = s.locks.withHallLock(params.HallID, func() error {
		existing, lockErr := s.availability.ListWindowsForHall(ctx, params.HallID)
		if lockErr != nil {
			return mapRepoError(lockErr)
		}
		spans := make([]interval.Span, 0, len(existing))
		for _, w := range existing {
			spans = append(spans, interval.Span{ID: w.ID, HallID: w.HallID, Start: w.Start, End: w.End})
		}

		proposed := interval.Span{HallID: params.HallID, Start: params.Start, End: params.End}
		if c := interval.CheckAvailabilityAdmissible(spans, proposed); c != nil {
			return &ConflictError{Kind: c.Kind, HallID: c.HallID, WithID: c.WithID}
		}

		window = AvailabilityWindow{
			ID:        s.idGenerator(),
			HallID:    params.HallID,
			Start:     params.Start,
			End:       params.End,
			CreatedAt: s.now(),
		}
		return mapRepoError(s.availability.AppendWindow(ctx, window))
	})
	if err != nil {
		window = AvailabilityWindow{}
		return
	}
	return
}

// ScheduleMaintenance takes a hall out of service for an assigned issue.
// Only the scheduler the issue is assigned to may schedule it, the window
// must lie in the future, and it must clear bookings, other maintenance, and
// availability windows. On success the window is stored and the issue moves
// to IN_PROGRESS in one transaction.
func (s *MaintenanceService) ScheduleMaintenance(ctx context.Context, params ScheduleMaintenanceParams) (window MaintenanceWindow, err error) {
	if s == nil || s.maintenance == nil || s.issues == nil || s.halls == nil {
		err = fmt.Errorf("maintenance service not configured")
		return
	}

	logger := s.loggerWith(ctx, "ScheduleMaintenance",
		"principal_id", params.Principal.UserID,
		"issue_id", params.IssueID,
		"hall_id", params.HallID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to schedule maintenance", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("window_id", window.ID).InfoContext(ctx, "maintenance scheduled")
	}()

	if params.Principal.Role != RoleScheduler {
		err = ErrUnauthorized
		return
	}

	if _, err = s.halls.GetHall(ctx, params.HallID); err != nil {
		err = mapRepoError(err)
		return
	}

	if !params.Start.Before(params.End) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		err = vErr
		return
	}
	now := s.now()
	if params.Start.Before(now) {
		err = policyErr(PolicyMaintenanceInPast, "maintenance cannot start in the past")
		return
	}

	// The issue gate runs under the hall lock with the admissibility checks
	// and the write, so two schedulers racing on the same ASSIGNED issue
	// cannot both observe it schedulable.
	err = s.locks.withHallLock(params.HallID, func() error {
		issue, lockErr := s.issues.GetIssue(ctx, params.IssueID)
		if lockErr != nil {
			return mapRepoError(lockErr)
		}
		if issue.Status != IssueAssigned {
			return policyErr(PolicyIssueNotAssigned, "issue %s is %s, not ASSIGNED", issue.ID, issue.Status)
		}
		if issue.AssignedSchedulerID != params.Principal.UserID {
			return policyErr(PolicyWrongScheduler, "issue %s is assigned to a different scheduler", issue.ID)
		}
		if issue.HallID != "" && issue.HallID != params.HallID {
			vErr := &ValidationError{}
			vErr.add("hall_id", "issue was reported against a different hall")
			return vErr
		}

		proposed := interval.Span{HallID: params.HallID, Start: params.Start, End: params.End}

		bookingSpans, lockErr := s.hallBookingSpans(ctx, params.HallID)
		if lockErr != nil {
			return lockErr
		}
		maintenanceSpans, lockErr := s.hallMaintenanceSpans(ctx, params.HallID)
		if lockErr != nil {
			return lockErr
		}
		availabilitySpans, lockErr := s.hallAvailabilitySpans(ctx, params.HallID)
		if lockErr != nil {
			return lockErr
		}

		if c := interval.CheckMaintenanceAdmissible(bookingSpans, maintenanceSpans, availabilitySpans, proposed); c != nil {
			return &ConflictError{Kind: c.Kind, HallID: c.HallID, WithID: c.WithID}
		}

		window = MaintenanceWindow{
			ID:          s.idGenerator(),
			HallID:      params.HallID,
			SchedulerID: params.Principal.UserID,
			IssueID:     issue.ID,
			Start:       params.Start,
			End:         params.End,
			CreatedAt:   now,
		}
		updated := issue
		updated.Status = IssueInProgress
		updated.UpdatedAt = now
		if lockErr := mapRepoError(s.maintenance.AppendWindowAndUpdateIssue(ctx, window, updated)); lockErr != nil {
			// The store only advances an issue that is still ASSIGNED; a
			// missing row here means another window claimed it first.
			if errors.Is(lockErr, ErrNotFound) {
				return policyErr(PolicyIssueNotAssigned, "issue %s is no longer ASSIGNED", issue.ID)
			}
			return lockErr
		}
		return nil
	})
	if err != nil {
		window = MaintenanceWindow{}
		return
	}
	return
}

// ListAvailabilityForHall returns the declared windows for one hall in
// insertion order.
func (s *MaintenanceService) ListAvailabilityForHall(ctx context.Context, hallID string) ([]AvailabilityWindow, error) {
	if s == nil || s.availability == nil {
		return nil, fmt.Errorf("availability repository not configured")
	}
	windows, err := s.availability.ListWindowsForHall(ctx, hallID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return windows, nil
}

// ListMaintenanceForHall returns the maintenance windows for one hall in
// insertion order.
func (s *MaintenanceService) ListMaintenanceForHall(ctx context.Context, hallID string) ([]MaintenanceWindow, error) {
	if s == nil || s.maintenance == nil {
		return nil, fmt.Errorf("maintenance repository not configured")
	}
	windows, err := s.maintenance.ListWindowsForHall(ctx, hallID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return windows, nil
}

func (s *MaintenanceService) hallBookingSpans(ctx context.Context, hallID string) ([]interval.Span, error) {
	if s.bookings == nil {
		return nil, nil
	}
	bookings, err := s.bookings.ListBookingsForHall(ctx, hallID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(bookings))
	for _, b := range bookings {
		spans = append(spans, interval.Span{ID: b.ID, HallID: b.HallID, Start: b.Start, End: b.End})
	}
	return spans, nil
}

func (s *MaintenanceService) hallMaintenanceSpans(ctx context.Context, hallID string) ([]interval.Span, error) {
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

func (s *MaintenanceService) hallAvailabilitySpans(ctx context.Context, hallID string) ([]interval.Span, error) {
	if s.availability == nil {
		return nil, nil
	}
	windows, err := s.availability.ListWindowsForHall(ctx, hallID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(windows))
	for _, w := range windows {
		spans = append(spans, interval.Span{ID: w.ID, HallID: w.HallID, Start: w.Start, End: w.End})
	}
	return spans, nil
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func withinBusinessHours(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	return minute >= businessDayOpenMinute && minute <= businessDayCloseMinute
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// IssueRepository stores reported issues.
type IssueRepository interface {
	CreateIssue(ctx context.Context, issue Issue) error
	UpdateIssue(ctx context.Context, issue Issue) error
	GetIssue(ctx context.Context, id string) (Issue, error)
	ListIssues(ctx context.Context) ([]Issue, error)
	ListIssuesByStatus(ctx context.Context, status IssueStatus) ([]Issue, error)
}

// UserDirectory exposes account lookups to the issue lifecycle.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// BookingDirectory exposes booking lookups to the issue lifecycle.
type BookingDirectory interface {
	GetBooking(ctx context.Context, id string) (Booking, error)
}

// MaintenanceScanner exposes the full maintenance log to the closing sweep.
type MaintenanceScanner interface {
	ListWindows(ctx context.Context) ([]MaintenanceWindow, error)
}

// IssueService runs the issue state machine: OPEN, ASSIGNED, IN_PROGRESS,
// CLOSED. Transitions only move forward and never skip a state.
type IssueService struct {
	issues      IssueRepository
	users       UserDirectory
	bookings    BookingDirectory
	maintenance MaintenanceScanner
	locks       *HallLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewIssueService wires dependencies for the issue lifecycle. The lock set
// must be the one shared with the scheduling services so the sweep cannot
// race a concurrent ScheduleMaintenance for the same hall.
func NewIssueService(issues IssueRepository, users UserDirectory, bookings BookingDirectory, maintenance MaintenanceScanner, locks *HallLocks, idGenerator func() string, now func() time.Time) *IssueService {
	return NewIssueServiceWithLogger(issues, users, bookings, maintenance, locks, idGenerator, now, nil)
}

// NewIssueServiceWithLogger wires dependencies with a specified logger.
func NewIssueServiceWithLogger(issues IssueRepository, users UserDirectory, bookings BookingDirectory, maintenance MaintenanceScanner, locks *HallLocks, idGenerator func() string, now func() time.Time, logger *slog.Logger) *IssueService {
	if locks == nil {
		locks = NewHallLocks()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &IssueService{
		issues:      issues,
		users:       users,
		bookings:    bookings,
		maintenance: maintenance,
		locks:       locks,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *IssueService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IssueService", operation, attrs...)
}

// ReportIssue files a new OPEN issue against one of the customer's bookings.
func (s *IssueService) ReportIssue(ctx context.Context, params ReportIssueParams) (issue Issue, err error) {
	if s == nil || s.issues == nil {
		err = fmt.Errorf("issue repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ReportIssue",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to report issue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("issue_id", issue.ID).InfoContext(ctx, "issue reported")
	}()

	if params.Principal.Role != RoleCustomer && params.Principal.Role != RoleManager {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Description) == "" {
		vErr.add("description", "description is required")
	}
	if strings.TrimSpace(params.BookingID) == "" {
		vErr.add("booking_id", "booking id is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	hallID := params.HallID
	if s.bookings != nil {
		var booking Booking
		booking, err = s.bookings.GetBooking(ctx, params.BookingID)
		if err != nil {
			err = mapRepoError(err)
			return
		}
		if params.Principal.Role == RoleCustomer && booking.CustomerID != params.Principal.UserID {
			err = ErrUnauthorized
			return
		}
		if hallID == "" {
			hallID = booking.HallID
		} else if hallID != booking.HallID {
			vErr.add("hall_id", "booking was made for a different hall")
			err = vErr
			return
		}
	}

	reported := s.now()
	issue = Issue{
		ID:          s.idGenerator(),
		CustomerID:  params.Principal.UserID,
		BookingID:   params.BookingID,
		HallID:      hallID,
		Description: strings.TrimSpace(params.Description),
		Status:      IssueOpen,
		ReportedAt:  reported,
		UpdatedAt:   reported,
	}
	if err = s.issues.CreateIssue(ctx, issue); err != nil {
		err = mapRepoError(err)
		issue = Issue{}
		return
	}
	return
}

// AssignIssue hands an OPEN issue to a scheduler. The scheduler must exist,
// hold the scheduler role, and not be blocked.
func (s *IssueService) AssignIssue(ctx context.Context, params AssignIssueParams) (issue Issue, err error) {
	if s == nil || s.issues == nil || s.users == nil {
		err = fmt.Errorf("issue service not configured")
		return
	}

	logger := s.loggerWith(ctx, "AssignIssue",
		"principal_id", params.Principal.UserID,
		"issue_id", params.IssueID,
		"scheduler_id", params.SchedulerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign issue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "issue assigned")
	}()

	if params.Principal.Role != RoleManager {
		err = ErrUnauthorized
		return
	}

	issue, err = s.issues.GetIssue(ctx, params.IssueID)
	if err != nil {
		err = mapRepoError(err)
		issue = Issue{}
		return
	}
	if issue.Status != IssueOpen {
		err = policyErr(PolicyIssueNotOpen, "issue %s is %s and cannot be assigned", issue.ID, issue.Status)
		issue = Issue{}
		return
	}

	var scheduler User
	scheduler, err = s.users.GetUser(ctx, params.SchedulerID)
	if err != nil {
		err = mapRepoError(err)
		issue = Issue{}
		return
	}
	if scheduler.Role != RoleScheduler {
		vErr := &ValidationError{}
		vErr.add("scheduler_id", "user is not a scheduler")
		err = vErr
		issue = Issue{}
		return
	}
	if scheduler.Status == StatusBlocked {
		err = policyErr(PolicySchedulerBlocked, "scheduler %s is blocked", scheduler.ID)
		issue = Issue{}
		return
	}

	issue.Status = IssueAssigned
	issue.AssignedSchedulerID = scheduler.ID
	issue.UpdatedAt = s.now()
	if err = s.issues.UpdateIssue(ctx, issue); err != nil {
		err = mapRepoError(err)
		issue = Issue{}
		return
	}
	return
}

// SweepAndCloseIssues scans every maintenance window and closes the linked
// issue of each elapsed window that is still IN_PROGRESS. The sweep is
// idempotent; it only ever advances the IN_PROGRESS to CLOSED edge. It takes
// the hall lock before mutating so it cannot race a concurrent
// ScheduleMaintenance for the same hall.
func (s *IssueService) SweepAndCloseIssues(ctx context.Context) (closed int, err error) {
	if s == nil || s.issues == nil || s.maintenance == nil {
		err = fmt.Errorf("issue service not configured")
		return
	}

	logger := s.loggerWith(ctx, "SweepAndCloseIssues")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "issue sweep failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if closed > 0 {
			logger.With("closed", closed).InfoContext(ctx, "issues closed by sweep")
		}
	}()

	var windows []MaintenanceWindow
	windows, err = s.maintenance.ListWindows(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	now := s.now()
	for _, window := range windows {
		if window.End.After(now) || window.IssueID == "" {
			continue
		}
		w := window
		lockErr := s.locks.withHallLock(w.HallID, func() error {
			issue, getErr := s.issues.GetIssue(ctx, w.IssueID)
			if getErr != nil {
				return mapRepoError(getErr)
			}
			if issue.Status != IssueInProgress {
				return nil
			}
			issue.Status = IssueClosed
			if issue.Resolution == "" {
				issue.Resolution = "Maintenance completed"
			}
			issue.UpdatedAt = now
			if updErr := s.issues.UpdateIssue(ctx, issue); updErr != nil {
				return mapRepoError(updErr)
			}
			closed++
			return nil
		})
		if lockErr != nil {
			err = lockErr
			return
		}
	}
	return
}

// ListIssues returns issues for manager dashboards, optionally narrowed to a
// single status.
func (s *IssueService) ListIssues(ctx context.Context, principal Principal, status IssueStatus) ([]Issue, error) {
	if s == nil || s.issues == nil {
		return nil, fmt.Errorf("issue repository not configured")
	}
	if principal.Role != RoleManager && principal.Role != RoleScheduler {
		return nil, ErrUnauthorized
	}

	var (
		issues []Issue
		err    error
	)
	if status == "" {
		issues, err = s.issues.ListIssues(ctx)
	} else {
		issues, err = s.issues.ListIssuesByStatus(ctx, status)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}
	return issues, nil
}

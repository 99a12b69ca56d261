package application

import (
	"errors"
	"fmt"

	"github.com/example/hall-booking/internal/interval"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing identifier.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrHallInUse is returned when a hall cannot be deleted because a booking
	// for it ends in the future.
	ErrHallInUse = errors.New("application: hall has future bookings")
	// ErrInvalidCredentials is returned when authentication input does not match a user.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a blocked user attempts to authenticate.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session token has passed its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was explicitly revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ConflictError reports that a proposed interval overlaps a committed one.
// Kind identifies the colliding collection so callers can phrase the refusal
// precisely: an overlapping booking reads "not available" while an
// overlapping maintenance window reads "under maintenance".
type ConflictError struct {
	Kind   interval.Kind
	HallID string
	WithID string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("hall %s: interval conflicts with existing %s %s", e.HallID, e.Kind, e.WithID)
}

// PolicyReason labels the business rule that rejected an operation.
type PolicyReason string

const (
	// PolicyCancellationTooLate rejects cancellation within three days of the booking start.
	PolicyCancellationTooLate PolicyReason = "cancellation_too_late"
	// PolicyMaintenanceInPast rejects maintenance windows starting before now.
	PolicyMaintenanceInPast PolicyReason = "maintenance_in_past"
	// PolicyOutsideBusinessHours rejects availability outside 08:00-18:00.
	PolicyOutsideBusinessHours PolicyReason = "outside_business_hours"
	// PolicyNotWeekday rejects availability on weekends.
	PolicyNotWeekday PolicyReason = "not_weekday"
	// PolicyIssueNotAssigned rejects maintenance for an issue that is not in the ASSIGNED state.
	PolicyIssueNotAssigned PolicyReason = "issue_not_assigned"
	// PolicyWrongScheduler rejects maintenance by a scheduler the issue is not assigned to.
	PolicyWrongScheduler PolicyReason = "wrong_scheduler"
	// PolicySchedulerBlocked rejects assignment to a blocked scheduler.
	PolicySchedulerBlocked PolicyReason = "scheduler_blocked"
	// PolicyIssueNotOpen rejects assignment of an issue that already left the OPEN state.
	PolicyIssueNotOpen PolicyReason = "issue_not_open"
)

// PolicyError reports a rejected operation along with the violated rule.
type PolicyError struct {
	Reason  PolicyReason
	Message string
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Reason)
}

func policyErr(reason PolicyReason, format string, args ...any) *PolicyError {
	return &PolicyError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

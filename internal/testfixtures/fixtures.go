package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

var (
	hallCounter    uint64
	bookingCounter uint64
	issueCounter   uint64
	userCounter    uint64
)

var referenceTime = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday so business-hour and weekday rules admit it.
func ReferenceTime() time.Time {
	return referenceTime
}

// HallOption configures a generated hall fixture.
type HallOption func(*persistence.Hall)

// NewHallFixture returns a deterministic hall record with optional overrides.
func NewHallFixture(opts ...HallOption) persistence.Hall {
	idx := atomic.AddUint64(&hallCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	hall := persistence.Hall{
		ID:        fmt.Sprintf("hall-%03d", idx),
		Type:      "MEETING_ROOM",
		Capacity:  30,
		RateCents: 5000,
		Location:  "Default Location",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&hall)
	}
	return hall
}

// WithHallID overrides the generated hall ID.
func WithHallID(id string) HallOption {
	return func(h *persistence.Hall) { h.ID = id }
}

// WithHallType sets the hall type together with its catalog defaults.
func WithHallType(hallType string, capacity int, rateCents int64) HallOption {
	return func(h *persistence.Hall) {
		h.Type = hallType
		h.Capacity = capacity
		h.RateCents = rateCents
	}
}

// WithHallLocation overrides the generated location.
func WithHallLocation(location string) HallOption {
	return func(h *persistence.Hall) { h.Location = location }
}

// BookingOption configures a generated booking fixture.
type BookingOption func(*persistence.Booking)

// NewBookingFixture returns a deterministic booking record with optional
// overrides. Successive fixtures occupy consecutive non-overlapping slots.
func NewBookingFixture(opts ...BookingOption) persistence.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 24 * time.Hour)
	booking := persistence.Booking{
		ID:         fmt.Sprintf("booking-%03d", idx),
		CustomerID: "customer-001",
		HallID:     "hall-001",
		Start:      start,
		End:        start.Add(2 * time.Hour),
		TotalCents: 10000,
		CreatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(b *persistence.Booking) { b.ID = id }
}

// WithBookingCustomer overrides the owning customer.
func WithBookingCustomer(customerID string) BookingOption {
	return func(b *persistence.Booking) { b.CustomerID = customerID }
}

// WithBookingHall overrides the booked hall.
func WithBookingHall(hallID string) BookingOption {
	return func(b *persistence.Booking) { b.HallID = hallID }
}

// WithBookingInterval sets the booked interval.
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(b *persistence.Booking) {
		b.Start = start
		b.End = end
	}
}

// IssueOption configures a generated issue fixture.
type IssueOption func(*persistence.Issue)

// NewIssueFixture returns a deterministic open issue with optional overrides.
func NewIssueFixture(opts ...IssueOption) persistence.Issue {
	idx := atomic.AddUint64(&issueCounter, 1)
	issue := persistence.Issue{
		ID:          fmt.Sprintf("issue-%03d", idx),
		CustomerID:  "customer-001",
		BookingID:   "booking-001",
		HallID:      "hall-001",
		Description: fmt.Sprintf("Reported problem %03d", idx),
		Status:      "OPEN",
		ReportedAt:  referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&issue)
	}
	return issue
}

// WithIssueID overrides the generated issue ID.
func WithIssueID(id string) IssueOption {
	return func(i *persistence.Issue) { i.ID = id }
}

// WithIssueStatus sets the issue state and, for assigned states, the scheduler.
func WithIssueStatus(status, schedulerID string) IssueOption {
	return func(i *persistence.Issue) {
		i.Status = status
		i.AssignedSchedulerID = schedulerID
	}
}

// WithIssueHall overrides the hall the issue concerns.
func WithIssueHall(hallID string) IssueOption {
	return func(i *persistence.Issue) { i.HallID = hallID }
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUserFixture returns a deterministic active customer with optional
// overrides.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		Name:         fmt.Sprintf("User %03d", idx),
		Role:         "CUSTOMER",
		Status:       "ACTIVE",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserRole overrides the account role.
func WithUserRole(role string) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// WithUserStatus overrides the account status.
func WithUserStatus(status string) UserOption {
	return func(u *persistence.User) { u.Status = status }
}

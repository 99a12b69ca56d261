package persistence

import (
	"context"
	"time"
)

// Every interval-bearing collection follows the same durable-store contract:
// a load of the full collection in insertion order, an append of a single
// record, and an order-preserving replace of the whole collection. Multi-step
// mutations that must be atomic (archiving a booking, deleting a hall with
// its availability windows) are exposed as single repository methods so the
// backing store can run them in one transaction.

// HallRepository exposes CRUD operations for halls.
type HallRepository interface {
	CreateHall(ctx context.Context, hall Hall) error
	UpdateHall(ctx context.Context, hall Hall) error
	GetHall(ctx context.Context, id string) (Hall, error)
	ListHalls(ctx context.Context) ([]Hall, error)
	// DeleteHall removes the hall and purges its availability windows in the
	// same transaction. Bookings and maintenance history are left untouched.
	DeleteHall(ctx context.Context, id string) error
}

// BookingRepository stores active bookings and the cancellation history.
type BookingRepository interface {
	AppendBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	ListBookingsForHall(ctx context.Context, hallID string) ([]Booking, error)
	ListBookingsForCustomer(ctx context.Context, customerID string) ([]Booking, error)
	ReplaceBookings(ctx context.Context, bookings []Booking) error
	// ArchiveBooking transactionally removes the booking from the active set
	// and appends it to the cancellation history.
	ArchiveBooking(ctx context.Context, id string, canceledAt time.Time) (CanceledBooking, error)
	ListCanceledBookings(ctx context.Context) ([]CanceledBooking, error)
	// HallHasBookingsEndingAfter reports whether any active booking for the
	// hall ends after the reference time.
	HallHasBookingsEndingAfter(ctx context.Context, hallID string, reference time.Time) (bool, error)
}

// AvailabilityRepository stores declared availability windows.
type AvailabilityRepository interface {
	AppendWindow(ctx context.Context, window AvailabilityWindow) error
	ListWindows(ctx context.Context) ([]AvailabilityWindow, error)
	ListWindowsForHall(ctx context.Context, hallID string) ([]AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, windows []AvailabilityWindow) error
}

// MaintenanceRepository stores scheduled maintenance windows.
type MaintenanceRepository interface {
	AppendWindow(ctx context.Context, window MaintenanceWindow) error
	// AppendWindowAndUpdateIssue writes the window and the updated issue
	// record in the same transaction.
	AppendWindowAndUpdateIssue(ctx context.Context, window MaintenanceWindow, issue Issue) error
	ListWindows(ctx context.Context) ([]MaintenanceWindow, error)
	ListWindowsForHall(ctx context.Context, hallID string) ([]MaintenanceWindow, error)
	ReplaceWindows(ctx context.Context, windows []MaintenanceWindow) error
}

// IssueRepository stores reported issues.
type IssueRepository interface {
	CreateIssue(ctx context.Context, issue Issue) error
	UpdateIssue(ctx context.Context, issue Issue) error
	GetIssue(ctx context.Context, id string) (Issue, error)
	ListIssues(ctx context.Context) ([]Issue, error)
	ListIssuesByStatus(ctx context.Context, status string) ([]Issue, error)
}

// UserRepository exposes account lookups and mutations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

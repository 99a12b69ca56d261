package persistence

import "time"

// Hall is a catalog entry for a bookable venue.
type Hall struct {
	ID        string
	Type      string
	Capacity  int
	RateCents int64
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking is a confirmed claim on a hall for a half-open time interval.
type Booking struct {
	ID         string
	CustomerID string
	HallID     string
	Start      time.Time
	End        time.Time
	TotalCents int64
	CreatedAt  time.Time
}

// CanceledBooking is a booking moved to the cancellation history.
type CanceledBooking struct {
	Booking
	CanceledAt time.Time
}

// AvailabilityWindow marks a date range during which a hall is reserved for
// non-booking use. It is immutable once declared.
type AvailabilityWindow struct {
	ID        string
	HallID    string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// MaintenanceWindow is a scheduled out-of-service interval tied to an issue.
type MaintenanceWindow struct {
	ID          string
	HallID      string
	SchedulerID string
	IssueID     string
	Start       time.Time
	End         time.Time
	CreatedAt   time.Time
}

// Issue is a customer-reported problem progressing through a fixed state
// machine. AssignedSchedulerID and Resolution stay empty strings until set
// and must round-trip through the store unchanged.
type Issue struct {
	ID                  string
	CustomerID          string
	BookingID           string
	HallID              string
	Description         string
	Status              string
	AssignedSchedulerID string
	Resolution          string
	ReportedAt          time.Time
	UpdatedAt           time.Time
}

// User is an account record carrying role and status tags instead of a
// subtype hierarchy.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	Status       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is an issued authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

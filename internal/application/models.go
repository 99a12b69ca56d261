package application

import "time"

// Role tags a user account with its capabilities. Behavior differences are
// switch arms on this tag, not subtypes.
type Role string

const (
	// RoleCustomer books halls and reports issues.
	RoleCustomer Role = "CUSTOMER"
	// RoleScheduler manages the hall catalog, availability, and maintenance.
	RoleScheduler Role = "SCHEDULER"
	// RoleManager assigns issues and oversees accounts.
	RoleManager Role = "MANAGER"
)

// UserStatus marks whether an account may act.
type UserStatus string

const (
	// StatusActive is the default account state.
	StatusActive UserStatus = "ACTIVE"
	// StatusBlocked suspends an account; blocked schedulers cannot be
	// assigned issues and blocked users cannot authenticate.
	StatusBlocked UserStatus = "BLOCKED"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// HallType classifies a venue and determines its default capacity and rate.
type HallType string

const (
	// HallTypeAuditorium seats 1000 at $300.00/hour by default.
	HallTypeAuditorium HallType = "AUDITORIUM"
	// HallTypeMeetingRoom seats 30 at $50.00/hour by default.
	HallTypeMeetingRoom HallType = "MEETING_ROOM"
	// HallTypeBanquetHall seats 300 at $100.00/hour by default.
	HallTypeBanquetHall HallType = "BANQUET_HALL"
)

// hallDefaults maps each hall type to the capacity and hourly rate applied
// at creation time.
var hallDefaults = map[HallType]struct {
	Capacity  int
	RateCents int64
}{
	HallTypeAuditorium:  {Capacity: 1000, RateCents: 30000},
	HallTypeBanquetHall: {Capacity: 300, RateCents: 10000},
	HallTypeMeetingRoom: {Capacity: 30, RateCents: 5000},
}

// DefaultLocation fills in an omitted hall location.
const DefaultLocation = "Default Location"

// Hall represents a bookable venue.
type Hall struct {
	ID        string
	Type      HallType
	Capacity  int
	RateCents int64
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HallInput captures caller provided hall fields.
type HallInput struct {
	ID       string
	Type     HallType
	Location string
}

// CreateHallParams wraps the data required to create a hall.
type CreateHallParams struct {
	Principal Principal
	Input     HallInput
}

// UpdateHallParams wraps the data required to update a hall. Only type and
// location are mutable.
type UpdateHallParams struct {
	Principal Principal
	HallID    string
	Input     HallInput
}

// HallFilter narrows hall listings. Zero values leave a dimension
// unconstrained.
type HallFilter struct {
	Type         HallType
	MinCapacity  int
	Location     string
	MaxRateCents int64
}

// Booking represents a confirmed reservation of a hall.
type Booking struct {
	ID         string
	CustomerID string
	HallID     string
	Start      time.Time
	End        time.Time
	TotalCents int64
	CreatedAt  time.Time
}

// CreateBookingParams wraps the data required to book a hall.
type CreateBookingParams struct {
	Principal  Principal
	CustomerID string
	HallID     string
	Start      time.Time
	End        time.Time
}

// CanceledBooking is a booking preserved in the cancellation history.
type CanceledBooking struct {
	Booking
	CanceledAt time.Time
}

// AvailabilityWindow marks a hall as reserved for non-booking use over a
// date range.
type AvailabilityWindow struct {
	ID        string
	HallID    string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// DeclareAvailabilityParams wraps the data required to declare availability.
type DeclareAvailabilityParams struct {
	Principal Principal
	HallID    string
	Start     time.Time
	End       time.Time
}

// MaintenanceWindow is a scheduled out-of-service interval for a hall.
type MaintenanceWindow struct {
	ID          string
	HallID      string
	SchedulerID string
	IssueID     string
	Start       time.Time
	End         time.Time
	CreatedAt   time.Time
}

// ScheduleMaintenanceParams wraps the data required to schedule maintenance.
type ScheduleMaintenanceParams struct {
	Principal Principal
	IssueID   string
	HallID    string
	Start     time.Time
	End       time.Time
}

// IssueStatus enumerates the issue state machine. Transitions only move
// forward: OPEN, ASSIGNED, IN_PROGRESS, CLOSED.
type IssueStatus string

const (
	// IssueOpen is the initial state of a customer report.
	IssueOpen IssueStatus = "OPEN"
	// IssueAssigned means a manager handed the issue to a scheduler.
	IssueAssigned IssueStatus = "ASSIGNED"
	// IssueInProgress means maintenance is scheduled for the issue.
	IssueInProgress IssueStatus = "IN_PROGRESS"
	// IssueClosed is terminal, reached when the maintenance window elapses.
	IssueClosed IssueStatus = "CLOSED"
)

// Issue is a customer-reported problem tied to a booking and hall.
type Issue struct {
	ID                  string
	CustomerID          string
	BookingID           string
	HallID              string
	Description         string
	Status              IssueStatus
	AssignedSchedulerID string
	Resolution          string
	ReportedAt          time.Time
	UpdatedAt           time.Time
}

// ReportIssueParams wraps the data required to report an issue.
type ReportIssueParams struct {
	Principal   Principal
	BookingID   string
	HallID      string
	Description string
}

// AssignIssueParams wraps the data required to assign an issue to a scheduler.
type AssignIssueParams struct {
	Principal   Principal
	IssueID     string
	SchedulerID string
}

// User represents an account exposed by the application services.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials pairs a user with its stored password hash for
// authentication flows. The hash never leaves the auth service.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// UserInput captures caller provided account fields.
type UserInput struct {
	Email    string
	Name     string
	Role     Role
	Password string
}

// CreateUserParams wraps the data required to create an account.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}

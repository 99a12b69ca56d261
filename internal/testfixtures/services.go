package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/hall-booking/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Locks       *application.HallLocks
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Locks:       application.NewHallLocks(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Locks == nil {
		factory.Locks = application.NewHallLocks()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// HallServiceDeps captures dependencies for constructing a hall service.
type HallServiceDeps struct {
	Halls    application.HallRepository
	Bookings application.HallBookingIndex
	Now      func() time.Time
	Logger   *slog.Logger
}

// NewHallService builds a hall service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewHallService(deps HallServiceDeps) *application.HallService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewHallServiceWithLogger(
		deps.Halls,
		deps.Bookings,
		f.Locks,
		now,
		deps.Logger,
	)
}

// BookingServiceDeps captures dependencies for constructing a booking service.
type BookingServiceDeps struct {
	Bookings    application.BookingRepository
	Maintenance application.MaintenanceIndex
	Halls       application.HallCatalog
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewBookingService builds a booking service using the supplied dependencies.
// All services built from the same factory share one lock table so cross
// service serialization matches production wiring.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewBookingServiceWithLogger(
		deps.Bookings,
		deps.Maintenance,
		deps.Halls,
		f.Locks,
		idGen,
		now,
		deps.Logger,
	)
}

// MaintenanceServiceDeps captures dependencies for constructing a maintenance
// service.
type MaintenanceServiceDeps struct {
	Availability application.AvailabilityRepository
	Maintenance  application.MaintenanceRepository
	Bookings     application.BookingIndex
	Issues       application.IssueDirectory
	Halls        application.HallCatalog
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewMaintenanceService builds a maintenance service using the supplied
// dependencies.
func (f *ServiceFactory) NewMaintenanceService(deps MaintenanceServiceDeps) *application.MaintenanceService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewMaintenanceServiceWithLogger(
		deps.Availability,
		deps.Maintenance,
		deps.Bookings,
		deps.Issues,
		deps.Halls,
		f.Locks,
		idGen,
		now,
		deps.Logger,
	)
}

// IssueServiceDeps captures dependencies for constructing an issue service.
type IssueServiceDeps struct {
	Issues      application.IssueRepository
	Users       application.UserDirectory
	Bookings    application.BookingDirectory
	Maintenance application.MaintenanceScanner
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewIssueService builds an issue service using the supplied dependencies.
func (f *ServiceFactory) NewIssueService(deps IssueServiceDeps) *application.IssueService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewIssueServiceWithLogger(
		deps.Issues,
		deps.Users,
		deps.Bookings,
		deps.Maintenance,
		f.Locks,
		idGen,
		now,
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		deps.PasswordVerify,
		token,
		now,
		deps.SessionTTL,
		deps.Logger,
	)
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Accounts    application.AccountRepository
	Hash        application.PasswordHasher
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewUserServiceWithLogger(
		deps.Accounts,
		deps.Hash,
		idGen,
		now,
		deps.Logger,
	)
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AccountRepository exposes account persistence to the user service. The
// password hash travels next to the user record but is never part of it.
type AccountRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService manages accounts: creation, blocking, and directory queries.
type UserService struct {
	accounts     AccountRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(accounts AccountRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(accounts, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(accounts AccountRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		accounts:     accounts,
		hashPassword: hash,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser registers a new account. Managers create accounts of any role.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil || s.accounts == nil {
		err = fmt.Errorf("account repository not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Input.Email))
	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if params.Principal.Role != RoleManager {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email is required")
	}
	if strings.TrimSpace(params.Input.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch params.Input.Role {
	case RoleCustomer, RoleScheduler, RoleManager:
	default:
		vErr.add("role", "unknown role")
	}
	if len(params.Input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Input.Password)
	if err != nil {
		return
	}

	created := s.now()
	user = User{
		ID:        s.idGenerator(),
		Email:     email,
		Name:      strings.TrimSpace(params.Input.Name),
		Role:      params.Input.Role,
		Status:    StatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err = s.accounts.CreateUser(ctx, user, hash); err != nil {
		err = mapRepoError(err)
		user = User{}
		return
	}
	return
}

// SetUserStatus blocks or unblocks an account. Blocked schedulers cannot be
// assigned issues and blocked users cannot authenticate.
func (s *UserService) SetUserStatus(ctx context.Context, principal Principal, userID string, status UserStatus) (user User, err error) {
	if s == nil || s.accounts == nil {
		err = fmt.Errorf("account repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetUserStatus",
		"principal_id", principal.UserID,
		"user_id", userID,
		"status", string(status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set user status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user status updated")
	}()

	if principal.Role != RoleManager {
		err = ErrUnauthorized
		return
	}
	if status != StatusActive && status != StatusBlocked {
		vErr := &ValidationError{}
		vErr.add("status", "unknown status")
		err = vErr
		return
	}

	user, err = s.accounts.GetUser(ctx, userID)
	if err != nil {
		err = mapRepoError(err)
		user = User{}
		return
	}

	user.Status = status
	user.UpdatedAt = s.now()
	if err = s.accounts.UpdateUser(ctx, user); err != nil {
		err = mapRepoError(err)
		user = User{}
		return
	}
	return
}

// GetUser returns a single account by id.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	if s == nil || s.accounts == nil {
		return User{}, fmt.Errorf("account repository not configured")
	}
	user, err := s.accounts.GetUser(ctx, id)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return user, nil
}

// ListUsers returns the account directory for managers.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil || s.accounts == nil {
		return nil, fmt.Errorf("account repository not configured")
	}
	if principal.Role != RoleManager {
		return nil, ErrUnauthorized
	}
	users, err := s.accounts.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return users, nil
}

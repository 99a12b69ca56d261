package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

// HallRepository captures the persistence operations needed by the catalog.
type HallRepository interface {
	CreateHall(ctx context.Context, hall Hall) error
	UpdateHall(ctx context.Context, hall Hall) error
	GetHall(ctx context.Context, id string) (Hall, error)
	ListHalls(ctx context.Context) ([]Hall, error)
	DeleteHall(ctx context.Context, id string) error
}

// HallBookingIndex answers whether a hall still carries live commitments.
type HallBookingIndex interface {
	HallHasBookingsEndingAfter(ctx context.Context, hallID string, reference time.Time) (bool, error)
}

// HallService owns the canonical hall catalog. The conflict engine and the
// other services only ever read halls through it.
type HallService struct {
	halls    HallRepository
	bookings HallBookingIndex
	locks    *HallLocks
	now      func() time.Time
	logger   *slog.Logger
}

// NewHallService constructs a hall service with the provided dependencies.
// The lock set must be the one shared with the scheduling services so a
// deletion cannot race a concurrent booking for the same hall.
func NewHallService(halls HallRepository, bookings HallBookingIndex, locks *HallLocks, now func() time.Time) *HallService {
	return NewHallServiceWithLogger(halls, bookings, locks, now, nil)
}

// NewHallServiceWithLogger constructs a hall service with a specified logger.
func NewHallServiceWithLogger(halls HallRepository, bookings HallBookingIndex, locks *HallLocks, now func() time.Time, logger *slog.Logger) *HallService {
	if locks == nil {
		locks = NewHallLocks()
	}
	if now == nil {
		now = time.Now
	}
	return &HallService{halls: halls, bookings: bookings, locks: locks, now: now, logger: defaultLogger(logger)}
}

func (s *HallService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "HallService", operation, attrs...)
}

// CreateHall validates input and persists a new hall. The hall type dictates
// capacity and hourly rate; supplied values for either are ignored.
func (s *HallService) CreateHall(ctx context.Context, params CreateHallParams) (hall Hall, err error) {
	if s == nil || s.halls == nil {
		err = fmt.Errorf("hall repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateHall",
		"principal_id", params.Principal.UserID,
		"hall_id", params.Input.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create hall", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "hall created")
	}()

	if params.Principal.Role != RoleScheduler {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	id := strings.TrimSpace(params.Input.ID)
	if id == "" {
		vErr.add("id", "id is required")
	}
	defaults, ok := hallDefaults[params.Input.Type]
	if !ok {
		vErr.add("type", "unknown hall type")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	location := strings.TrimSpace(params.Input.Location)
	if location == "" {
		location = DefaultLocation
	}

	created := s.now()
	hall = Hall{
		ID:        id,
		Type:      params.Input.Type,
		Capacity:  defaults.Capacity,
		RateCents: defaults.RateCents,
		Location:  location,
		CreatedAt: created,
		UpdatedAt: created,
	}

	if err = s.halls.CreateHall(ctx, hall); err != nil {
		err = mapHallRepoError(err)
		hall = Hall{}
		return
	}
	return
}

// UpdateHall mutates the type and location of an existing hall. Changing the
// type re-applies the type's default capacity and rate. An empty location
// keeps the current one.
func (s *HallService) UpdateHall(ctx context.Context, params UpdateHallParams) (hall Hall, err error) {
	if s == nil || s.halls == nil {
		err = fmt.Errorf("hall repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateHall",
		"principal_id", params.Principal.UserID,
		"hall_id", params.HallID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update hall", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "hall updated")
	}()

	if params.Principal.Role != RoleScheduler {
		err = ErrUnauthorized
		return
	}

	var existing Hall
	existing, err = s.halls.GetHall(ctx, params.HallID)
	if err != nil {
		err = mapHallRepoError(err)
		return
	}

	defaults, ok := hallDefaults[params.Input.Type]
	if !ok {
		vErr := &ValidationError{}
		vErr.add("type", "unknown hall type")
		err = vErr
		return
	}

	updated := existing
	updated.Type = params.Input.Type
	updated.Capacity = defaults.Capacity
	updated.RateCents = defaults.RateCents
	if location := strings.TrimSpace(params.Input.Location); location != "" {
		updated.Location = location
	}
	updated.UpdatedAt = s.now()

	if err = s.halls.UpdateHall(ctx, updated); err != nil {
		err = mapHallRepoError(err)
		return
	}
	hall = updated
	return
}

// DeleteHall removes a hall that carries no future bookings. Availability
// windows for the hall are purged alongside it; booking history and
// maintenance records stay behind as an audit trail.
func (s *HallService) DeleteHall(ctx context.Context, principal Principal, hallID string) error {
	if s == nil || s.halls == nil {
		return fmt.Errorf("hall repository not configured")
	}
	if principal.Role != RoleScheduler {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteHall",
		"principal_id", principal.UserID,
		"hall_id", hallID,
	)

	// The in-use check and the delete run under the hall lock as one unit so
	// a concurrent CreateBooking cannot slip in between them.
	err := s.locks.withHallLock(hallID, func() error {
		if _, err := s.halls.GetHall(ctx, hallID); err != nil {
			return mapHallRepoError(err)
		}

		if s.bookings != nil {
			inUse, err := s.bookings.HallHasBookingsEndingAfter(ctx, hallID, s.now())
			if err != nil {
				return err
			}
			if inUse {
				return ErrHallInUse
			}
		}

		return mapHallRepoError(s.halls.DeleteHall(ctx, hallID))
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete hall", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "hall deleted")
	return nil
}

// GetHall returns a single hall by id.
func (s *HallService) GetHall(ctx context.Context, hallID string) (Hall, error) {
	if s == nil || s.halls == nil {
		return Hall{}, fmt.Errorf("hall repository not configured")
	}
	hall, err := s.halls.GetHall(ctx, hallID)
	if err != nil {
		return Hall{}, mapHallRepoError(err)
	}
	return hall, nil
}

// ListHalls returns the catalog ordered by id.
func (s *HallService) ListHalls(ctx context.Context) ([]Hall, error) {
	return s.FilterHalls(ctx, HallFilter{})
}

// FilterHalls returns the halls matching every constrained dimension of the
// filter, ordered by id.
func (s *HallService) FilterHalls(ctx context.Context, filter HallFilter) ([]Hall, error) {
	if s == nil || s.halls == nil {
		return nil, fmt.Errorf("hall repository not configured")
	}

	raw, err := s.halls.ListHalls(ctx)
	if err != nil {
		return nil, mapHallRepoError(err)
	}

	halls := make([]Hall, 0, len(raw))
	for _, hall := range raw {
		if filter.Type != "" && hall.Type != filter.Type {
			continue
		}
		if filter.MinCapacity > 0 && hall.Capacity < filter.MinCapacity {
			continue
		}
		if filter.Location != "" && !strings.EqualFold(hall.Location, filter.Location) {
			continue
		}
		if filter.MaxRateCents > 0 && hall.RateCents > filter.MaxRateCents {
			continue
		}
		halls = append(halls, hall)
	}

	sort.Slice(halls, func(i, j int) bool { return halls[i].ID < halls[j].ID })
	return halls, nil
}

func mapHallRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}

package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

type hallRepoStub struct {
	createErr error
	created   Hall

	getHall Hall
	getErr  error

	updateErr error
	updated   Hall

	deleteErr error
	deletedID string

	list    []Hall
	listErr error
}

func (r *hallRepoStub) CreateHall(ctx context.Context, hall Hall) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = hall
	return nil
}

func (r *hallRepoStub) UpdateHall(ctx context.Context, hall Hall) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = hall
	return nil
}

func (r *hallRepoStub) GetHall(ctx context.Context, id string) (Hall, error) {
	if r.getErr != nil {
		return Hall{}, r.getErr
	}
	if r.getHall.ID == "" {
		return Hall{}, persistence.ErrNotFound
	}
	return r.getHall, nil
}

func (r *hallRepoStub) ListHalls(ctx context.Context) ([]Hall, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Hall, len(r.list))
	copy(out, r.list)
	return out, nil
}

func (r *hallRepoStub) DeleteHall(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

type hallBookingIndexStub struct {
	inUse bool
	err   error
}

func (s *hallBookingIndexStub) HallHasBookingsEndingAfter(ctx context.Context, hallID string, reference time.Time) (bool, error) {
	return s.inUse, s.err
}

func TestHallService_CreateHall(t *testing.T) {
	t.Run("requires the scheduler role", func(t *testing.T) {
		svc := NewHallService(&hallRepoStub{}, nil, nil, nil)

		_, err := svc.CreateHall(context.Background(), CreateHallParams{
			Principal: Principal{UserID: "c-1", Role: RoleCustomer},
			Input:     HallInput{ID: "H1", Type: HallTypeAuditorium},
		})

		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates id and type", func(t *testing.T) {
		svc := NewHallService(&hallRepoStub{}, nil, nil, nil)

		_, err := svc.CreateHall(context.Background(), CreateHallParams{
			Principal: Principal{UserID: "s-1", Role: RoleScheduler},
			Input:     HallInput{ID: "  ", Type: HallType("BALLROOM")},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["id"]; !ok {
			t.Fatalf("expected id validation error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["type"]; !ok {
			t.Fatalf("expected type validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("applies type defaults and the default location", func(t *testing.T) {
		repo := &hallRepoStub{}
		now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
		svc := NewHallService(repo, nil, nil, func() time.Time { return now })

		created, err := svc.CreateHall(context.Background(), CreateHallParams{
			Principal: Principal{UserID: "s-1", Role: RoleScheduler},
			Input:     HallInput{ID: "H1", Type: HallTypeAuditorium},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if repo.created.Capacity != 1000 {
			t.Fatalf("expected auditorium capacity 1000, got %d", repo.created.Capacity)
		}
		if repo.created.RateCents != 30000 {
			t.Fatalf("expected auditorium rate 30000 cents, got %d", repo.created.RateCents)
		}
		if repo.created.Location != DefaultLocation {
			t.Fatalf("expected default location, got %q", repo.created.Location)
		}
		if !repo.created.CreatedAt.Equal(now) || !repo.created.UpdatedAt.Equal(now) {
			t.Fatalf("expected timestamps from injected clock, got created=%v updated=%v", repo.created.CreatedAt, repo.created.UpdatedAt)
		}
		if created.ID != "H1" {
			t.Fatalf("expected returned hall to carry the id, got %q", created.ID)
		}
	})

	t.Run("maps duplicate ids to ErrAlreadyExists", func(t *testing.T) {
		repo := &hallRepoStub{createErr: persistence.ErrDuplicate}
		svc := NewHallService(repo, nil, nil, nil)

		_, err := svc.CreateHall(context.Background(), CreateHallParams{
			Principal: Principal{UserID: "s-1", Role: RoleScheduler},
			Input:     HallInput{ID: "H1", Type: HallTypeMeetingRoom},
		})

		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestHallService_UpdateHall(t *testing.T) {
	t.Run("re-applies defaults when the type changes", func(t *testing.T) {
		existing := Hall{ID: "H1", Type: HallTypeMeetingRoom, Capacity: 30, RateCents: 5000, Location: "East Wing"}
		repo := &hallRepoStub{getHall: existing}
		now := time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC)
		svc := NewHallService(repo, nil, nil, func() time.Time { return now })

		updated, err := svc.UpdateHall(context.Background(), UpdateHallParams{
			Principal: Principal{UserID: "s-1", Role: RoleScheduler},
			HallID:    "H1",
			Input:     HallInput{Type: HallTypeBanquetHall},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if repo.updated.Capacity != 300 || repo.updated.RateCents != 10000 {
			t.Fatalf("expected banquet hall defaults, got capacity=%d rate=%d", repo.updated.Capacity, repo.updated.RateCents)
		}
		if repo.updated.Location != "East Wing" {
			t.Fatalf("expected empty location input to keep the old one, got %q", repo.updated.Location)
		}
		if updated.Type != HallTypeBanquetHall {
			t.Fatalf("expected returned hall type to change, got %q", updated.Type)
		}
	})

	t.Run("propagates ErrNotFound when the hall is missing", func(t *testing.T) {
		repo := &hallRepoStub{getErr: persistence.ErrNotFound}
		svc := NewHallService(repo, nil, nil, nil)

		_, err := svc.UpdateHall(context.Background(), UpdateHallParams{
			Principal: Principal{UserID: "s-1", Role: RoleScheduler},
			HallID:    "missing",
			Input:     HallInput{Type: HallTypeMeetingRoom},
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestHallService_DeleteHall(t *testing.T) {
	t.Run("refuses while future bookings exist", func(t *testing.T) {
		repo := &hallRepoStub{getHall: Hall{ID: "H1", Type: HallTypeMeetingRoom}}
		svc := NewHallService(repo, &hallBookingIndexStub{inUse: true}, nil, nil)

		err := svc.DeleteHall(context.Background(), Principal{UserID: "s-1", Role: RoleScheduler}, "H1")
		if !errors.Is(err, ErrHallInUse) {
			t.Fatalf("expected ErrHallInUse, got %v", err)
		}
		if repo.deletedID != "" {
			t.Fatalf("expected no delete call, got %q", repo.deletedID)
		}
	})

	t.Run("deletes once no booking ends in the future", func(t *testing.T) {
		repo := &hallRepoStub{getHall: Hall{ID: "H1", Type: HallTypeMeetingRoom}}
		svc := NewHallService(repo, &hallBookingIndexStub{}, nil, nil)

		if err := svc.DeleteHall(context.Background(), Principal{UserID: "s-1", Role: RoleScheduler}, "H1"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.deletedID != "H1" {
			t.Fatalf("expected repository to receive hall id, got %q", repo.deletedID)
		}
	})

	t.Run("holds the hall lock across the in-use check and the delete", func(t *testing.T) {
		repo := &hallRepoStub{getHall: Hall{ID: "H1", Type: HallTypeMeetingRoom}}
		locks := NewHallLocks()
		checking := make(chan struct{})
		release := make(chan struct{})
		index := &gatedBookingIndex{checking: checking, release: release}
		svc := NewHallService(repo, index, locks, nil)

		done := make(chan error, 1)
		go func() {
			done <- svc.DeleteHall(context.Background(), Principal{UserID: "s-1", Role: RoleScheduler}, "H1")
		}()
		<-checking

		acquired := make(chan struct{})
		go func() {
			_ = locks.withHallLock("H1", func() error { return nil })
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("hall lock was free while the delete was still deciding")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("expected delete to succeed, got %v", err)
		}
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("hall lock was never released after the delete")
		}
	})
}

// gatedBookingIndex signals when the in-use check starts and blocks it until
// released, so tests can observe what the caller holds in between.
type gatedBookingIndex struct {
	checking chan struct{}
	release  chan struct{}
}

func (s *gatedBookingIndex) HallHasBookingsEndingAfter(ctx context.Context, hallID string, reference time.Time) (bool, error) {
	close(s.checking)
	<-s.release
	return false, nil
}

func TestHallService_FilterHalls(t *testing.T) {
	catalog := []Hall{
		{ID: "H2", Type: HallTypeBanquetHall, Capacity: 300, RateCents: 10000, Location: "North"},
		{ID: "H1", Type: HallTypeAuditorium, Capacity: 1000, RateCents: 30000, Location: "North"},
		{ID: "H3", Type: HallTypeMeetingRoom, Capacity: 30, RateCents: 5000, Location: "South"},
	}

	t.Run("returns the full catalog ordered by id", func(t *testing.T) {
		svc := NewHallService(&hallRepoStub{list: catalog}, nil, nil, nil)

		got, err := svc.ListHalls(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 3 || got[0].ID != "H1" || got[1].ID != "H2" || got[2].ID != "H3" {
			t.Fatalf("expected halls ordered by id, got %+v", got)
		}
	})

	t.Run("narrows by every constrained dimension", func(t *testing.T) {
		svc := NewHallService(&hallRepoStub{list: catalog}, nil, nil, nil)

		got, err := svc.FilterHalls(context.Background(), HallFilter{
			Location:     "north",
			MinCapacity:  500,
			MaxRateCents: 30000,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 1 || got[0].ID != "H1" {
			t.Fatalf("expected only H1 to match, got %+v", got)
		}
	})
}

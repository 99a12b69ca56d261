package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/hall-booking/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool         *sqlite.ConnectionPool
	Halls        *sqlite.HallRepository
	Bookings     *sqlite.BookingRepository
	Availability *sqlite.AvailabilityRepository
	Maintenance  *sqlite.MaintenanceRepository
	Issues       *sqlite.IssueRepository
	Users        *sqlite.UserRepository
	Sessions     *sqlite.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "hallbooking.db")

	pool, err := sqlite.NewConnectionPool(path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:         pool,
		Halls:        sqlite.NewHallRepository(pool),
		Bookings:     sqlite.NewBookingRepository(pool),
		Availability: sqlite.NewAvailabilityRepository(pool),
		Maintenance:  sqlite.NewMaintenanceRepository(pool),
		Issues:       sqlite.NewIssueRepository(pool),
		Users:        sqlite.NewUserRepository(pool),
		Sessions:     sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

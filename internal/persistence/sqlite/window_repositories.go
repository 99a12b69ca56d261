package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

// AvailabilityRepository implements persistence.AvailabilityRepository using SQLite.
type AvailabilityRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAvailabilityRepository creates a new SQLite availability repository.
func NewAvailabilityRepository(pool *ConnectionPool) *AvailabilityRepository {
	return &AvailabilityRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// AppendWindow inserts an availability window at the end of the log.
func (r *AvailabilityRepository) AppendWindow(ctx context.Context, window persistence.AvailabilityWindow) error {
	if window.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO availability_windows (id, hall_id, start_at, end_at, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		window.ID,
		window.HallID,
		window.Start.UTC().Format(time.RFC3339),
		window.End.UTC().Format(time.RFC3339),
		window.CreatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// ListWindows returns every availability window in insertion order.
func (r *AvailabilityRepository) ListWindows(ctx context.Context) ([]persistence.AvailabilityWindow, error) {
	return r.queryWindows(ctx, `SELECT id, hall_id, start_at, end_at, created_at FROM availability_windows ORDER BY seq ASC`)
}

// ListWindowsForHall returns one hall's availability windows in insertion order.
func (r *AvailabilityRepository) ListWindowsForHall(ctx context.Context, hallID string) ([]persistence.AvailabilityWindow, error) {
	return r.queryWindows(ctx, `SELECT id, hall_id, start_at, end_at, created_at FROM availability_windows WHERE hall_id = ? ORDER BY seq ASC`, hallID)
}

// ReplaceWindows rewrites the whole collection, preserving the given order.
func (r *AvailabilityRepository) ReplaceWindows(ctx context.Context, windows []persistence.AvailabilityWindow) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, `DELETE FROM availability_windows`); err != nil {
			return r.mapper.MapError(err)
		}
		for _, window := range windows {
			if _, err := r.helper.ExecTx(tx,
				`INSERT INTO availability_windows (id, hall_id, start_at, end_at, created_at) VALUES (?, ?, ?, ?, ?)`,
				window.ID,
				window.HallID,
				window.Start.UTC().Format(time.RFC3339),
				window.End.UTC().Format(time.RFC3339),
				window.CreatedAt.UTC().Format(time.RFC3339),
			); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

func (r *AvailabilityRepository) queryWindows(ctx context.Context, query string, args ...any) ([]persistence.AvailabilityWindow, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var windows []persistence.AvailabilityWindow
	for rows.Next() {
		var window persistence.AvailabilityWindow
		var startAt, endAt, createdAt string
		if err := rows.Scan(&window.ID, &window.HallID, &startAt, &endAt, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if err := parseWindowTimes(&window.Start, &window.End, &window.CreatedAt, startAt, endAt, createdAt); err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return windows, nil
}

// MaintenanceRepository implements persistence.MaintenanceRepository using SQLite.
type MaintenanceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMaintenanceRepository creates a new SQLite maintenance repository.
func NewMaintenanceRepository(pool *ConnectionPool) *MaintenanceRepository {
	return &MaintenanceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const maintenanceInsert = `INSERT INTO maintenance_windows (id, hall_id, scheduler_id, issue_id, start_at, end_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

// AppendWindow inserts a maintenance window at the end of the log.
func (r *MaintenanceRepository) AppendWindow(ctx context.Context, window persistence.MaintenanceWindow) error {
	if window.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, maintenanceInsert,
		window.ID,
		window.HallID,
		window.SchedulerID,
		window.IssueID,
		window.Start.UTC().Format(time.RFC3339),
		window.End.UTC().Format(time.RFC3339),
		window.CreatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// AppendWindowAndUpdateIssue writes the window and the updated issue record
// in the same transaction so a crash cannot leave a scheduled window whose
// issue never advanced. The update only matches an issue still in ASSIGNED;
// zero rows reports persistence.ErrNotFound and rolls the window back, so
// an issue that moved on concurrently cannot collect a second window.
func (r *MaintenanceRepository) AppendWindowAndUpdateIssue(ctx context.Context, window persistence.MaintenanceWindow, issue persistence.Issue) error {
	if window.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, maintenanceInsert,
			window.ID,
			window.HallID,
			window.SchedulerID,
			window.IssueID,
			window.Start.UTC().Format(time.RFC3339),
			window.End.UTC().Format(time.RFC3339),
			window.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx,
			`UPDATE issues SET status = ?, assigned_scheduler_id = ?, resolution = ?, updated_at = ? WHERE id = ? AND status = 'ASSIGNED'`,
			issue.Status,
			issue.AssignedSchedulerID,
			issue.Resolution,
			issue.UpdatedAt.UTC().Format(time.RFC3339),
			issue.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// ListWindows returns every maintenance window in insertion order.
func (r *MaintenanceRepository) ListWindows(ctx context.Context) ([]persistence.MaintenanceWindow, error) {
	return r.queryWindows(ctx, `SELECT id, hall_id, scheduler_id, issue_id, start_at, end_at, created_at FROM maintenance_windows ORDER BY seq ASC`)
}

// ListWindowsForHall returns one hall's maintenance windows in insertion order.
func (r *MaintenanceRepository) ListWindowsForHall(ctx context.Context, hallID string) ([]persistence.MaintenanceWindow, error) {
	return r.queryWindows(ctx, `SELECT id, hall_id, scheduler_id, issue_id, start_at, end_at, created_at FROM maintenance_windows WHERE hall_id = ? ORDER BY seq ASC`, hallID)
}

// ReplaceWindows rewrites the whole collection, preserving the given order.
func (r *MaintenanceRepository) ReplaceWindows(ctx context.Context, windows []persistence.MaintenanceWindow) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, `DELETE FROM maintenance_windows`); err != nil {
			return r.mapper.MapError(err)
		}
		for _, window := range windows {
			if _, err := r.helper.ExecTx(tx, maintenanceInsert,
				window.ID,
				window.HallID,
				window.SchedulerID,
				window.IssueID,
				window.Start.UTC().Format(time.RFC3339),
				window.End.UTC().Format(time.RFC3339),
				window.CreatedAt.UTC().Format(time.RFC3339),
			); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

func (r *MaintenanceRepository) queryWindows(ctx context.Context, query string, args ...any) ([]persistence.MaintenanceWindow, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var windows []persistence.MaintenanceWindow
	for rows.Next() {
		var window persistence.MaintenanceWindow
		var startAt, endAt, createdAt string
		if err := rows.Scan(&window.ID, &window.HallID, &window.SchedulerID, &window.IssueID, &startAt, &endAt, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if err := parseWindowTimes(&window.Start, &window.End, &window.CreatedAt, startAt, endAt, createdAt); err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return windows, nil
}

func parseWindowTimes(start, end, createdAt *time.Time, startStr, endStr, createdStr string) error {
	var err error
	if *start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return fmt.Errorf("failed to parse start_at: %w", err)
	}
	if *end, err = time.Parse(time.RFC3339, endStr); err != nil {
		return fmt.Errorf("failed to parse end_at: %w", err)
	}
	if *createdAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	return nil
}

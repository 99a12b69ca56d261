package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

// HallRepository implements persistence.HallRepository using SQLite.
type HallRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewHallRepository creates a new SQLite hall repository.
func NewHallRepository(pool *ConnectionPool) *HallRepository {
	return &HallRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateHall inserts a new hall.
func (r *HallRepository) CreateHall(ctx context.Context, hall persistence.Hall) error {
	if hall.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO halls (id, type, capacity, rate_cents, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		hall.ID,
		hall.Type,
		hall.Capacity,
		hall.RateCents,
		hall.Location,
		hall.CreatedAt.UTC().Format(time.RFC3339),
		hall.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// UpdateHall replaces the mutable columns of an existing hall.
func (r *HallRepository) UpdateHall(ctx context.Context, hall persistence.Hall) error {
	if hall.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE halls
		SET type = ?, capacity = ?, rate_cents = ?, location = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		hall.Type,
		hall.Capacity,
		hall.RateCents,
		hall.Location,
		hall.UpdatedAt.UTC().Format(time.RFC3339),
		hall.ID,
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
}

// GetHall retrieves a hall by id.
func (r *HallRepository) GetHall(ctx context.Context, id string) (persistence.Hall, error) {
	if id == "" {
		return persistence.Hall{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, type, capacity, rate_cents, location, created_at, updated_at
		FROM halls
		WHERE id = ?
	`
	row := r.helper.QueryRow(ctx, query, id)
	hall, err := scanHall(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Hall{}, persistence.ErrNotFound
		}
		return persistence.Hall{}, r.mapper.MapError(err)
	}
	return hall, nil
}

// ListHalls returns every hall ordered by id.
func (r *HallRepository) ListHalls(ctx context.Context) ([]persistence.Hall, error) {
	query := `
		SELECT id, type, capacity, rate_cents, location, created_at, updated_at
		FROM halls
		ORDER BY id ASC
	`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var halls []persistence.Hall
	for rows.Next() {
		hall, err := scanHall(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		halls = append(halls, hall)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return halls, nil
}

// DeleteHall removes the hall and purges its availability windows in one
// transaction. Booking and maintenance history stay behind.
func (r *HallRepository) DeleteHall(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM availability_windows WHERE hall_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM halls WHERE id = ?", id)
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

func scanHall(scan func(dest ...any) error) (persistence.Hall, error) {
	var hall persistence.Hall
	var createdAt, updatedAt string

	if err := scan(
		&hall.ID,
		&hall.Type,
		&hall.Capacity,
		&hall.RateCents,
		&hall.Location,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Hall{}, err
	}

	var err error
	if hall.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Hall{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if hall.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Hall{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return hall, nil
}

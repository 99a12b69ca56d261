package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

const bookingColumns = "id, customer_id, hall_id, start_at, end_at, total_cents, created_at"

// BookingRepository implements persistence.BookingRepository using SQLite.
// Active bookings and the cancellation history live in separate tables;
// archiving moves a row between them in one transaction.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// AppendBooking inserts a booking at the end of the log.
func (r *BookingRepository) AppendBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		booking.ID,
		booking.CustomerID,
		booking.HallID,
		booking.Start.UTC().Format(time.RFC3339),
		booking.End.UTC().Format(time.RFC3339),
		booking.TotalCents,
		booking.CreatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// GetBooking retrieves an active booking by id.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// ListBookings returns every active booking in insertion order.
func (r *BookingRepository) ListBookings(ctx context.Context) ([]persistence.Booking, error) {
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY seq ASC`)
}

// ListBookingsForHall returns the active bookings for one hall in insertion order.
func (r *BookingRepository) ListBookingsForHall(ctx context.Context, hallID string) ([]persistence.Booking, error) {
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE hall_id = ? ORDER BY seq ASC`, hallID)
}

// ListBookingsForCustomer returns the active bookings of one customer ordered
// by start time.
func (r *BookingRepository) ListBookingsForCustomer(ctx context.Context, customerID string) ([]persistence.Booking, error) {
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE customer_id = ? ORDER BY start_at ASC, seq ASC`, customerID)
}

// ReplaceBookings rewrites the whole active set, preserving the given order.
func (r *BookingRepository) ReplaceBookings(ctx context.Context, bookings []persistence.Booking) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, `DELETE FROM bookings`); err != nil {
			return r.mapper.MapError(err)
		}
		for _, booking := range bookings {
			if _, err := r.helper.ExecTx(tx,
				`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				booking.ID,
				booking.CustomerID,
				booking.HallID,
				booking.Start.UTC().Format(time.RFC3339),
				booking.End.UTC().Format(time.RFC3339),
				booking.TotalCents,
				booking.CreatedAt.UTC().Format(time.RFC3339),
			); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// ArchiveBooking removes the booking from the active set and appends it to
// the cancellation history in one transaction.
func (r *BookingRepository) ArchiveBooking(ctx context.Context, id string, canceledAt time.Time) (persistence.CanceledBooking, error) {
	if id == "" {
		return persistence.CanceledBooking{}, persistence.ErrNotFound
	}

	var canceled persistence.CanceledBooking
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		row := r.helper.QueryRowTx(tx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
		booking, err := scanBooking(row.Scan)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}

		if _, err := r.helper.ExecTx(tx,
			`INSERT INTO canceled_bookings (`+bookingColumns+`, canceled_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			booking.ID,
			booking.CustomerID,
			booking.HallID,
			booking.Start.UTC().Format(time.RFC3339),
			booking.End.UTC().Format(time.RFC3339),
			booking.TotalCents,
			booking.CreatedAt.UTC().Format(time.RFC3339),
			canceledAt.UTC().Format(time.RFC3339),
		); err != nil {
			return r.mapper.MapError(err)
		}

		if _, err := r.helper.ExecTx(tx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}

		canceled = persistence.CanceledBooking{Booking: booking, CanceledAt: canceledAt.UTC()}
		return nil
	})
	if err != nil {
		return persistence.CanceledBooking{}, err
	}
	return canceled, nil
}

// ListCanceledBookings returns the cancellation history in insertion order.
func (r *BookingRepository) ListCanceledBookings(ctx context.Context) ([]persistence.CanceledBooking, error) {
	query := `SELECT ` + bookingColumns + `, canceled_at FROM canceled_bookings ORDER BY seq ASC`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var canceled []persistence.CanceledBooking
	for rows.Next() {
		var booking persistence.Booking
		var startAt, endAt, createdAt, canceledAt string
		if err := rows.Scan(
			&booking.ID,
			&booking.CustomerID,
			&booking.HallID,
			&startAt,
			&endAt,
			&booking.TotalCents,
			&createdAt,
			&canceledAt,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if err := parseBookingTimes(&booking, startAt, endAt, createdAt); err != nil {
			return nil, err
		}
		record := persistence.CanceledBooking{Booking: booking}
		if record.CanceledAt, err = time.Parse(time.RFC3339, canceledAt); err != nil {
			return nil, fmt.Errorf("failed to parse canceled_at: %w", err)
		}
		canceled = append(canceled, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return canceled, nil
}

// HallHasBookingsEndingAfter reports whether any active booking for the hall
// ends after the reference time.
func (r *BookingRepository) HallHasBookingsEndingAfter(ctx context.Context, hallID string, reference time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE hall_id = ? AND end_at > ?`
	var count int
	if err := r.helper.QueryRow(ctx, query, hallID, reference.UTC().Format(time.RFC3339)).Scan(&count); err != nil {
		return false, r.mapper.MapError(err)
	}
	return count > 0, nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

func scanBooking(scan func(dest ...any) error) (persistence.Booking, error) {
	var booking persistence.Booking
	var startAt, endAt, createdAt string

	if err := scan(
		&booking.ID,
		&booking.CustomerID,
		&booking.HallID,
		&startAt,
		&endAt,
		&booking.TotalCents,
		&createdAt,
	); err != nil {
		return persistence.Booking{}, err
	}
	if err := parseBookingTimes(&booking, startAt, endAt, createdAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func parseBookingTimes(booking *persistence.Booking, startAt, endAt, createdAt string) error {
	var err error
	if booking.Start, err = time.Parse(time.RFC3339, startAt); err != nil {
		return fmt.Errorf("failed to parse start_at: %w", err)
	}
	if booking.End, err = time.Parse(time.RFC3339, endAt); err != nil {
		return fmt.Errorf("failed to parse end_at: %w", err)
	}
	if booking.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/hall-booking/internal/persistence"
)

func testBooking(t *testing.T, id, hallID, start, end string) persistence.Booking {
	t.Helper()
	return persistence.Booking{
		ID:         id,
		CustomerID: "cust-1",
		HallID:     hallID,
		Start:      testTime(t, start),
		End:        testTime(t, end),
		TotalCents: 20000,
		CreatedAt:  testTime(t, "2025-01-01T10:00:00Z"),
	}
}

func TestBookingRepository_AppendAndGet(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	booking := testBooking(t, "b-1", "hall-1", "2025-03-03T10:00:00Z", "2025-03-03T12:00:00Z")
	if err := repo.AppendBooking(ctx, booking); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}

	retrieved, err := repo.GetBooking(ctx, "b-1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if retrieved.HallID != "hall-1" || retrieved.TotalCents != 20000 {
		t.Errorf("Booking did not round-trip: %+v", retrieved)
	}
	if !retrieved.Start.Equal(booking.Start) || !retrieved.End.Equal(booking.End) {
		t.Errorf("Interval did not round-trip: %v - %v", retrieved.Start, retrieved.End)
	}
}

func TestBookingRepository_AppendDuplicate(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	booking := testBooking(t, "b-1", "hall-1", "2025-03-03T10:00:00Z", "2025-03-03T12:00:00Z")
	if err := repo.AppendBooking(ctx, booking); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}
	if err := repo.AppendBooking(ctx, booking); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestBookingRepository_ListPreservesInsertionOrder(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	// Insert out of chronological order; the log must keep insertion order.
	first := testBooking(t, "b-late", "hall-1", "2025-03-05T10:00:00Z", "2025-03-05T12:00:00Z")
	second := testBooking(t, "b-early", "hall-1", "2025-03-03T10:00:00Z", "2025-03-03T12:00:00Z")
	if err := repo.AppendBooking(ctx, first); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}
	if err := repo.AppendBooking(ctx, second); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}

	bookings, err := repo.ListBookings(ctx)
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("Expected 2 bookings, got %d", len(bookings))
	}
	if bookings[0].ID != "b-late" || bookings[1].ID != "b-early" {
		t.Errorf("Expected insertion order, got %s, %s", bookings[0].ID, bookings[1].ID)
	}
}

func TestBookingRepository_ListForCustomerOrdersByStart(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	late := testBooking(t, "b-late", "hall-1", "2025-03-05T10:00:00Z", "2025-03-05T12:00:00Z")
	early := testBooking(t, "b-early", "hall-2", "2025-03-03T10:00:00Z", "2025-03-03T12:00:00Z")
	other := testBooking(t, "b-other", "hall-1", "2025-03-04T10:00:00Z", "2025-03-04T12:00:00Z")
	other.CustomerID = "cust-2"
	for _, b := range []persistence.Booking{late, early, other} {
		if err := repo.AppendBooking(ctx, b); err != nil {
			t.Fatalf("AppendBooking failed for %s: %v", b.ID, err)
		}
	}

	bookings, err := repo.ListBookingsForCustomer(ctx, "cust-1")
	if err != nil {
		t.Fatalf("ListBookingsForCustomer failed: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("Expected 2 bookings for cust-1, got %d", len(bookings))
	}
	if bookings[0].ID != "b-early" || bookings[1].ID != "b-late" {
		t.Errorf("Expected start-time order, got %s, %s", bookings[0].ID, bookings[1].ID)
	}
}

func TestBookingRepository_ArchiveBooking(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	booking := testBooking(t, "b-1", "hall-1", "2025-03-03T10:00:00Z", "2025-03-03T12:00:00Z")
	if err := repo.AppendBooking(ctx, booking); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}

	canceledAt := testTime(t, "2025-02-01T09:00:00Z")
	canceled, err := repo.ArchiveBooking(ctx, "b-1", canceledAt)
	if err != nil {
		t.Fatalf("ArchiveBooking failed: %v", err)
	}
	if canceled.ID != "b-1" || !canceled.CanceledAt.Equal(canceledAt) {
		t.Errorf("Unexpected canceled record: %+v", canceled)
	}

	if _, err := repo.GetBooking(ctx, "b-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected booking removed from active set, got %v", err)
	}

	history, err := repo.ListCanceledBookings(ctx)
	if err != nil {
		t.Fatalf("ListCanceledBookings failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != "b-1" {
		t.Fatalf("Expected one history record for b-1, got %+v", history)
	}

	// A second archive of the same id reports not found.
	if _, err := repo.ArchiveBooking(ctx, "b-1", canceledAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second archive, got %v", err)
	}
}

func TestBookingRepository_ReplaceBookings(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	if err := repo.AppendBooking(ctx, testBooking(t, "b-old", "hall-1", "2025-03-03T10:00:00Z", "2025-03-03T12:00:00Z")); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}

	replacement := []persistence.Booking{
		testBooking(t, "b-2", "hall-1", "2025-03-05T10:00:00Z", "2025-03-05T12:00:00Z"),
		testBooking(t, "b-1", "hall-1", "2025-03-04T10:00:00Z", "2025-03-04T12:00:00Z"),
	}
	if err := repo.ReplaceBookings(ctx, replacement); err != nil {
		t.Fatalf("ReplaceBookings failed: %v", err)
	}

	bookings, err := repo.ListBookings(ctx)
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("Expected 2 bookings after replace, got %d", len(bookings))
	}
	if bookings[0].ID != "b-2" || bookings[1].ID != "b-1" {
		t.Errorf("Replace did not preserve given order: %s, %s", bookings[0].ID, bookings[1].ID)
	}
}

func TestBookingRepository_HallHasBookingsEndingAfter(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewBookingRepository(pool)
	ctx := context.Background()

	if err := repo.AppendBooking(ctx, testBooking(t, "b-1", "hall-1", "2025-03-03T10:00:00Z", "2025-03-03T12:00:00Z")); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}

	has, err := repo.HallHasBookingsEndingAfter(ctx, "hall-1", testTime(t, "2025-03-03T11:00:00Z"))
	if err != nil {
		t.Fatalf("HallHasBookingsEndingAfter failed: %v", err)
	}
	if !has {
		t.Error("Expected hall to have a booking ending after reference")
	}

	has, err = repo.HallHasBookingsEndingAfter(ctx, "hall-1", testTime(t, "2025-03-03T12:00:00Z"))
	if err != nil {
		t.Fatalf("HallHasBookingsEndingAfter failed: %v", err)
	}
	if has {
		t.Error("Expected no booking ending after its own end time")
	}
}

package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/hall-booking/internal/persistence"
)

func setupSessionRepositoryTest(t *testing.T) (*SessionRepository, context.Context) {
	t.Helper()
	pool := setupTestPool(t)

	// Sessions reference users; seed the owning account.
	users := NewUserRepository(pool)
	ctx := context.Background()
	if err := users.CreateUser(ctx, testUser(t, "u-1", "alice@example.com")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return NewSessionRepository(pool), ctx
}

func testSession(t *testing.T, id, token string) persistence.Session {
	t.Helper()
	return persistence.Session{
		ID:        id,
		UserID:    "u-1",
		Token:     token,
		ExpiresAt: testTime(t, "2025-01-02T10:00:00Z"),
		CreatedAt: testTime(t, "2025-01-01T10:00:00Z"),
		UpdatedAt: testTime(t, "2025-01-01T10:00:00Z"),
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	repo, ctx := setupSessionRepositoryTest(t)

	session := testSession(t, "s-1", "token-1")
	if _, err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := repo.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.UserID != "u-1" || retrieved.RevokedAt != nil {
		t.Errorf("Session did not round-trip: %+v", retrieved)
	}
	if !retrieved.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("Expiry did not round-trip: %v", retrieved.ExpiresAt)
	}
}

func TestSessionRepository_CreateUnknownUser(t *testing.T) {
	repo, ctx := setupSessionRepositoryTest(t)

	session := testSession(t, "s-1", "token-1")
	session.UserID = "ghost"
	if _, err := repo.CreateSession(ctx, session); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("Expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestSessionRepository_RevokeSession(t *testing.T) {
	repo, ctx := setupSessionRepositoryTest(t)

	if _, err := repo.CreateSession(ctx, testSession(t, "s-1", "token-1")); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	revokedAt := testTime(t, "2025-01-01T12:00:00Z")
	revoked, err := repo.RevokeSession(ctx, "token-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Errorf("Expected revocation stamp %v, got %+v", revokedAt, revoked.RevokedAt)
	}

	retrieved, err := repo.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.RevokedAt == nil {
		t.Error("Expected stored session to carry the revocation stamp")
	}
}

func TestSessionRepository_RevokeMissing(t *testing.T) {
	repo, ctx := setupSessionRepositoryTest(t)

	_, err := repo.RevokeSession(ctx, "ghost", testTime(t, "2025-01-01T12:00:00Z"))
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	repo, ctx := setupSessionRepositoryTest(t)

	expired := testSession(t, "s-1", "token-old")
	expired.ExpiresAt = testTime(t, "2025-01-01T09:00:00Z")
	live := testSession(t, "s-2", "token-live")
	for _, session := range []persistence.Session{expired, live} {
		if _, err := repo.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed for %s: %v", session.ID, err)
		}
	}

	if err := repo.DeleteExpiredSessions(ctx, testTime(t, "2025-01-01T10:00:00Z")); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := repo.GetSession(ctx, "token-old"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected expired session removed, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-live"); err != nil {
		t.Fatalf("Expected live session kept, got %v", err)
	}
}

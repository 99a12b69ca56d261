package sqlite

import (
	"context"
	"fmt"
)

// schema is applied as a whole on startup; every statement is idempotent.
// Collections that feed the conflict engine carry a seq column so loads
// return insertion order and it survives a replace.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS halls (
		id         TEXT PRIMARY KEY,
		type       TEXT NOT NULL,
		capacity   INTEGER NOT NULL CHECK (capacity > 0),
		rate_cents INTEGER NOT NULL CHECK (rate_cents >= 0),
		location   TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL,
		hall_id     TEXT NOT NULL,
		start_at    TEXT NOT NULL,
		end_at      TEXT NOT NULL,
		total_cents INTEGER NOT NULL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_hall ON bookings (hall_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings (customer_id)`,
	`CREATE TABLE IF NOT EXISTS canceled_bookings (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL,
		hall_id     TEXT NOT NULL,
		start_at    TEXT NOT NULL,
		end_at      TEXT NOT NULL,
		total_cents INTEGER NOT NULL,
		created_at  TEXT NOT NULL,
		canceled_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS availability_windows (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		hall_id    TEXT NOT NULL,
		start_at   TEXT NOT NULL,
		end_at     TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_availability_hall ON availability_windows (hall_id)`,
	`CREATE TABLE IF NOT EXISTS maintenance_windows (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		id           TEXT NOT NULL UNIQUE,
		hall_id      TEXT NOT NULL,
		scheduler_id TEXT NOT NULL,
		issue_id     TEXT NOT NULL,
		start_at     TEXT NOT NULL,
		end_at       TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_hall ON maintenance_windows (hall_id)`,
	`CREATE TABLE IF NOT EXISTS issues (
		id                    TEXT PRIMARY KEY,
		customer_id           TEXT NOT NULL,
		booking_id            TEXT NOT NULL,
		hall_id               TEXT NOT NULL,
		description           TEXT NOT NULL,
		status                TEXT NOT NULL,
		assigned_scheduler_id TEXT NOT NULL DEFAULT '',
		resolution            TEXT NOT NULL DEFAULT '',
		reported_at           TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_status ON issues (status)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		role          TEXT NOT NULL,
		status        TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users (id),
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id)`,
}

// Migrate creates the schema if it does not exist yet.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

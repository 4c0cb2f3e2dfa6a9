package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func insertSession(t *testing.T, db *DB, id, ownerID, createdAt string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO sessions (id, owner_id, title, location, is_indoor, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, "Session "+id, "Gym - Wall", 1, createdAt)
	require.NoError(t, err)
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"sessions",
		"routes",
		"attempts",
		"activity_log",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// Re-running is a no-op
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestRouteCascade verifies attempts go away with their route
func TestRouteCascade(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1", "user1", "2026-10-18T10:00:00.000Z")

	_, err := db.ExecContext(ctx,
		`INSERT INTO routes (session_id, id, position, route_name, difficulty) VALUES (?, ?, ?, ?, ?)`,
		"s1", "r1", 0, "Arete", "V2")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO attempts (session_id, route_id, id, position, success, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"s1", "r1", "a1", 0, 1, "2026-10-18T10:01:00.000Z")
	require.NoError(t, err)

	// Attempt under an unknown route is rejected
	_, err = db.ExecContext(ctx,
		`INSERT INTO attempts (session_id, route_id, id, position, success, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"s1", "missing", "a2", 0, 0, "2026-10-18T10:02:00.000Z")
	require.Error(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM routes WHERE session_id = ?`, "s1")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&count))
	require.Equal(t, 0, count)
}

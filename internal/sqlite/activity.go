package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/climbr/internal/domain/activity"
)

var _ activity.Repository = (*ActivityRepository)(nil)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, ownerID string, entry *activity.Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO activity_log (
			owner_id, session_id, route_id, activity_type, summary, details, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		ownerID,
		entry.SessionID,
		entry.RouteID,
		entry.Type,
		entry.Summary,
		entry.Details,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}

	entry.OwnerID = ownerID
	entry.CreatedAt = createdAt

	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, ownerID string, opts activity.ListOptions) ([]activity.Entry, error) {
	query := `
		SELECT
			id, owner_id, session_id, route_id,
			activity_type, summary, details, created_at
		FROM activity_log
		WHERE owner_id = ?
	`

	args := []interface{}{ownerID}
	conditions := []string{}

	if opts.SessionID != nil {
		conditions = append(conditions, "session_id = ?")
		args = append(args, *opts.SessionID)
	}
	if opts.Type != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, *opts.Type)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var entry activity.Entry
		var routeID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.OwnerID,
			&entry.SessionID,
			&routeID,
			&entry.Type,
			&entry.Summary,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if routeID.Valid {
			entry.RouteID = &routeID.String
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}

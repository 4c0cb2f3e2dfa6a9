package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/repository"
)

var _ session.Repository = (*SessionRepository)(nil)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession inserts the session row. Routes are written separately.
func (r *SessionRepository) CreateSession(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, owner_id, title, location, is_indoor, gym_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		sess.OwnerID,
		sess.Title,
		sess.Location,
		sess.IsIndoor,
		sess.GymName,
		sess.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session with its routes and attempts in stored order
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, owner_id, title, location, is_indoor, gym_name, created_at
		FROM sessions
		WHERE id = ?
	`

	sess, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	routes, err := r.loadRoutes(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Routes = routes

	return sess, nil
}

// UpdateSessionFields updates title and gym name when non-nil
func (r *SessionRepository) UpdateSessionFields(ctx context.Context, id string, title, gymName *string) error {
	sets := []string{}
	args := []interface{}{}
	if title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *title)
	}
	if gymName != nil {
		sets = append(sets, "gym_name = ?")
		args = append(args, *gymName)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := "UPDATE sessions SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CreateRoute inserts a route at the given position
func (r *SessionRepository) CreateRoute(ctx context.Context, sessionID string, position int, route *session.Route) error {
	tags := route.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO routes (
			session_id, id, position, route_name, difficulty, tags, notes, media_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		sessionID,
		route.ID,
		position,
		route.Name,
		route.Difficulty,
		string(tagsJSON),
		route.Notes,
		route.MediaURI,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create route: %w", err)
	}

	return nil
}

// CreateAttempt inserts an attempt under a stored route
func (r *SessionRepository) CreateAttempt(ctx context.Context, sessionID, routeID string, position int, attempt *session.Attempt) error {
	query := `
		INSERT INTO attempts (
			session_id, route_id, id, position, success, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sessionID,
		routeID,
		attempt.ID,
		position,
		attempt.Success,
		attempt.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	return nil
}

// DeleteRoutes removes every route of a session; attempts cascade
func (r *SessionRepository) DeleteRoutes(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete routes: %w", err)
	}
	return nil
}

// UpdateRouteMedia sets the media URL of one route
func (r *SessionRepository) UpdateRouteMedia(ctx context.Context, sessionID, routeID, mediaURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE routes SET media_url = ? WHERE session_id = ? AND id = ?`,
		mediaURL, sessionID, routeID)
	if err != nil {
		return fmt.Errorf("failed to update route media: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListIDsByOwner returns session ids for an owner, newest first
func (r *SessionRepository) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE owner_id = ? ORDER BY created_at DESC, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return ids, nil
}

// ListSummaries returns session headers with route counts, newest first
func (r *SessionRepository) ListSummaries(ctx context.Context, ownerID string) ([]session.Summary, error) {
	query := `
		SELECT s.id, s.title, s.location, s.is_indoor, s.gym_name, s.created_at,
		       (SELECT COUNT(*) FROM routes rt WHERE rt.session_id = s.id)
		FROM sessions s
		WHERE s.owner_id = ?
		ORDER BY s.created_at DESC, s.id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session summaries: %w", err)
	}
	defer rows.Close()

	var summaries []session.Summary
	for rows.Next() {
		var s session.Summary
		var gymName sql.NullString
		if err := rows.Scan(&s.ID, &s.Title, &s.Location, &s.IsIndoor, &gymName, &s.CreatedAt, &s.RoutesCount); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		if gymName.Valid {
			s.GymName = &gymName.String
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session summaries: %w", err)
	}

	return summaries, nil
}

// ListCreatedSince returns full sessions created at or after since, newest first
func (r *SessionRepository) ListCreatedSince(ctx context.Context, ownerID, since string) ([]session.Session, error) {
	query := `
		SELECT id, owner_id, title, location, is_indoor, gym_name, created_at
		FROM sessions
		WHERE owner_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}

	var sessions []session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	rows.Close()

	// Routes are loaded after the cursor is closed; the pool holds one connection.
	for i := range sessions {
		routes, err := r.loadRoutes(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Routes = routes
	}

	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*session.Session, error) {
	var sess session.Session
	var gymName sql.NullString
	if err := row.Scan(
		&sess.ID,
		&sess.OwnerID,
		&sess.Title,
		&sess.Location,
		&sess.IsIndoor,
		&gymName,
		&sess.CreatedAt,
	); err != nil {
		return nil, err
	}
	if gymName.Valid {
		sess.GymName = &gymName.String
	}
	return &sess, nil
}

func (r *SessionRepository) loadRoutes(ctx context.Context, sessionID string) ([]session.Route, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, route_name, difficulty, tags, notes, media_url
		FROM routes
		WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	routes := []session.Route{}
	for rows.Next() {
		var route session.Route
		var tagsJSON string
		var notes, mediaURL sql.NullString
		if err := rows.Scan(&route.ID, &route.Name, &route.Difficulty, &tagsJSON, &notes, &mediaURL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		route.Tags = []string{}
		if err := json.Unmarshal([]byte(tagsJSON), &route.Tags); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to decode tags for route %s: %w", route.ID, err)
		}
		if notes.Valid {
			route.Notes = &notes.String
		}
		if mediaURL.Valid {
			route.MediaURI = &mediaURL.String
		}
		route.Attempts = []session.Attempt{}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}
	rows.Close()

	attempts, err := r.loadAttempts(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if list, ok := attempts[routes[i].ID]; ok {
			routes[i].Attempts = list
		}
	}

	return routes, nil
}

func (r *SessionRepository) loadAttempts(ctx context.Context, sessionID string) (map[string][]session.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT route_id, id, success, created_at
		FROM attempts
		WHERE session_id = ?
		ORDER BY route_id, position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	defer rows.Close()

	byRoute := make(map[string][]session.Attempt)
	for rows.Next() {
		var routeID string
		var attempt session.Attempt
		if err := rows.Scan(&routeID, &attempt.ID, &attempt.Success, &attempt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		byRoute[routeID] = append(byRoute[routeID], attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}

	return byRoute, nil
}

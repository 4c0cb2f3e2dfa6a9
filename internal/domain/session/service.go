package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/climbr/internal/domain/activity"
	"github.com/rpggio/climbr/internal/repository"
)

// TimestampLayout is the ISO-8601 form used for createdAt values. It sorts
// lexically in chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// RecentWindow bounds the sessions returned by ListRecent.
const RecentWindow = 24 * time.Hour

// Timestamp formats t in TimestampLayout, in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an RFC 3339 createdAt value.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// Service is the persistence side of the session protocol. Writes are a
// sequence of repository calls, not one transaction: rows written before a
// later validation failure stay in place.
type Service struct {
	sessions   Repository
	activities ActivityRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new session service.
func NewService(sessions Repository, activities ActivityRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions:   sessions,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// SaveResult identifies the records written by Create or Put. RouteIDs is in
// submission order.
type SaveResult struct {
	SessionID string   `json:"sessionId"`
	RouteIDs  []string `json:"routeIds"`
}

// PutRequest describes a full-replace update. Nil scalar fields are left as stored.
type PutRequest struct {
	SessionID string
	Title     *string
	GymName   *string
	Routes    []Route
}

// Create stores a new session with all of its routes and attempts.
func (s *Service) Create(ctx context.Context, callerID string, sess Session) (*SaveResult, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := ValidateFields(sess); err != nil {
		return nil, err
	}
	if sess.Routes == nil {
		return nil, fmt.Errorf("%w: routes must be a list", ErrInvalidArgument)
	}
	if sess.OwnerID != callerID {
		return nil, ErrPermissionDenied
	}

	record := &Session{
		ID:        uuid.NewString(),
		OwnerID:   sess.OwnerID,
		Title:     sess.Title,
		Location:  sess.Location,
		IsIndoor:  sess.IsIndoor,
		GymName:   cloneString(sess.GymName),
		CreatedAt: Timestamp(s.now()),
	}
	if err := s.sessions.CreateSession(ctx, record); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.logger.Debug("session created", "session_id", record.ID, "owner_id", record.OwnerID)

	routeIDs, err := s.writeRoutes(ctx, record.ID, sess.Routes)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, callerID, &activity.Entry{
		SessionID: record.ID,
		Type:      activity.TypeSessionCreated,
		Summary:   fmt.Sprintf("created session %s with %d routes", record.ID, len(routeIDs)),
	})

	return &SaveResult{SessionID: record.ID, RouteIDs: routeIDs}, nil
}

// Put replaces the route subtree of an existing session. Every stored route and
// attempt is deleted and the submitted list is re-created; only title and gym
// name are updated in place. Media URLs must be re-submitted per route.
func (s *Service) Put(ctx context.Context, callerID string, req PutRequest) (*SaveResult, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidArgument)
	}
	if req.Routes == nil {
		return nil, fmt.Errorf("%w: routes must be a list", ErrInvalidArgument)
	}
	if err := ValidateRoutes(req.Routes); err != nil {
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be blank", ErrInvalidArgument)
	}

	existing, err := s.sessions.GetSession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if existing.OwnerID != callerID {
		return nil, ErrPermissionDenied
	}

	if req.Title != nil || req.GymName != nil {
		if err := s.sessions.UpdateSessionFields(ctx, req.SessionID, req.Title, req.GymName); err != nil {
			return nil, fmt.Errorf("updating session: %w", err)
		}
	}
	if err := s.sessions.DeleteRoutes(ctx, req.SessionID); err != nil {
		return nil, fmt.Errorf("deleting routes: %w", err)
	}
	s.logger.Debug("session routes cleared", "session_id", req.SessionID, "previous_routes", existing.RoutesCount())

	routeIDs, err := s.writeRoutes(ctx, req.SessionID, req.Routes)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, callerID, &activity.Entry{
		SessionID: req.SessionID,
		Type:      activity.TypeSessionReplaced,
		Summary:   fmt.Sprintf("replaced %d routes with %d", existing.RoutesCount(), len(routeIDs)),
	})

	return &SaveResult{SessionID: req.SessionID, RouteIDs: routeIDs}, nil
}

// Get loads a session with its routes and attempts.
func (s *Service) Get(ctx context.Context, callerID, sessionID string) (*Session, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidArgument)
	}
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// ListIDs returns the owner's session ids, newest first. An owner without
// sessions yields an empty list.
func (s *Service) ListIDs(ctx context.Context, callerID, ownerID string) ([]string, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidArgument)
	}
	ids, err := s.sessions.ListIDsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ListSummaries returns the owner's sessions with route counts, newest first.
func (s *Service) ListSummaries(ctx context.Context, callerID, ownerID string) ([]Summary, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidArgument)
	}
	summaries, err := s.sessions.ListSummaries(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing session summaries: %w", err)
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	return summaries, nil
}

// ListRecent returns the owner's sessions created within RecentWindow, newest first.
func (s *Service) ListRecent(ctx context.Context, callerID, ownerID string) ([]Session, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidArgument)
	}
	since := Timestamp(s.now().Add(-RecentWindow))
	sessions, err := s.sessions.ListCreatedSince(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("listing recent sessions: %w", err)
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

// UpdateRouteMedia sets the media URL of a single stored route.
func (s *Service) UpdateRouteMedia(ctx context.Context, callerID, sessionID, routeID, mediaURL string) error {
	if callerID == "" {
		return ErrUnauthenticated
	}
	if sessionID == "" || routeID == "" || strings.TrimSpace(mediaURL) == "" {
		return fmt.Errorf("%w: sessionId, routeId and mediaUrl are required", ErrInvalidArgument)
	}
	existing, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("loading session: %w", err)
	}
	if existing.OwnerID != callerID {
		return ErrPermissionDenied
	}
	if err := s.sessions.UpdateRouteMedia(ctx, sessionID, routeID, mediaURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRouteNotFound
		}
		return fmt.Errorf("updating route media: %w", err)
	}

	s.logActivity(ctx, callerID, &activity.Entry{
		SessionID: sessionID,
		RouteID:   &routeID,
		Type:      activity.TypeRouteMediaUpdated,
		Summary:   fmt.Sprintf("updated media for route %s", routeID),
	})
	return nil
}

// writeRoutes creates routes and attempts in order. Each entity is validated
// immediately before it is written.
func (s *Service) writeRoutes(ctx context.Context, sessionID string, routes []Route) ([]string, error) {
	routeIDs := make([]string, 0, len(routes))
	for i, r := range routes {
		if err := ValidateRoute(r); err != nil {
			return nil, err
		}
		route := &Route{
			ID:         r.ID,
			Name:       r.Name,
			Difficulty: r.Difficulty,
			Tags:       NormalizeTags(r.Tags),
			Notes:      cloneString(r.Notes),
			MediaURI:   cloneString(r.MediaURI),
		}
		if route.ID == "" {
			route.ID = uuid.NewString()
		}
		if err := s.sessions.CreateRoute(ctx, sessionID, i, route); err != nil {
			if errors.Is(err, repository.ErrForeignKeyViolation) {
				return nil, ErrSessionNotFound
			}
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, fmt.Errorf("%w: duplicate route id %q", ErrInvalidArgument, route.ID)
			}
			return nil, fmt.Errorf("creating route %d: %w", i, err)
		}

		for j, a := range r.Attempts {
			if err := ValidateAttempt(a); err != nil {
				return nil, err
			}
			attempt := &Attempt{ID: a.ID, Success: a.Success, CreatedAt: a.CreatedAt}
			if attempt.ID == "" {
				attempt.ID = uuid.NewString()
			}
			if err := s.sessions.CreateAttempt(ctx, sessionID, route.ID, j, attempt); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return nil, fmt.Errorf("%w: duplicate attempt id %q", ErrInvalidArgument, attempt.ID)
				}
				return nil, fmt.Errorf("creating attempt %d of route %d: %w", j, i, err)
			}
		}
		routeIDs = append(routeIDs, route.ID)
	}
	return routeIDs, nil
}

func (s *Service) logActivity(ctx context.Context, ownerID string, entry *activity.Entry) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, ownerID, entry); err != nil {
		s.logger.Warn("failed to log activity", "session_id", entry.SessionID, "type", entry.Type, "error", err)
	}
}

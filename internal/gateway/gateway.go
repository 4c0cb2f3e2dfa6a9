package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/identity"
)

// Remote is the persistence service as seen by the client.
type Remote interface {
	CreateSession(ctx context.Context, sess session.Session) (*session.SaveResult, error)
	PutSession(ctx context.Context, req session.PutRequest) (*session.SaveResult, error)
	GetSessionByID(ctx context.Context, sessionID string) (*session.Session, error)
	GetSessionsByUID(ctx context.Context, uid string) ([]string, error)
	UpdateRouteMedia(ctx context.Context, sessionID, routeID, mediaURL string) error
}

// Result reports the ids the service assigned or confirmed. RouteIDs is in
// the order the routes were submitted.
type Result struct {
	SessionID string
	RouteIDs  []string
	Created   bool
}

// Gateway reconciles a local aggregate with the remote service in one
// create-or-update call.
type Gateway struct {
	remote   Remote
	identity identity.Provider
	logger   *slog.Logger
}

// New creates a Gateway.
func New(remote Remote, provider identity.Provider, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{remote: remote, identity: provider, logger: logger}
}

// Save creates sess when it has never been persisted and fully replaces it
// otherwise. Exactly one remote write is issued; nothing is retried.
func (g *Gateway) Save(ctx context.Context, sess session.Session) (Result, error) {
	if err := session.Validate(sess); err != nil {
		return Result{}, err
	}

	userID, err := g.identity.CurrentUserID(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resolving user: %w", session.ErrUnauthenticated)
	}
	if sess.OwnerID != userID {
		return Result{}, session.ErrPermissionDenied
	}

	var (
		saved   *session.SaveResult
		created = !sess.Persisted()
	)
	if created {
		saved, err = g.remote.CreateSession(ctx, sess)
		if err != nil {
			return Result{}, fmt.Errorf("creating session: %w", err)
		}
	} else {
		title := sess.Title
		saved, err = g.remote.PutSession(ctx, session.PutRequest{
			SessionID: sess.ID,
			Title:     &title,
			GymName:   sess.GymName,
			Routes:    sess.Routes,
		})
		if err != nil {
			return Result{}, fmt.Errorf("updating session %s: %w", sess.ID, err)
		}
	}

	if saved == nil || saved.SessionID == "" {
		return Result{}, fmt.Errorf("%w: missing session id", session.ErrMalformedResponse)
	}
	if len(saved.RouteIDs) != len(sess.Routes) {
		return Result{}, fmt.Errorf("%w: got %d route ids for %d routes",
			session.ErrMalformedResponse, len(saved.RouteIDs), len(sess.Routes))
	}

	g.logger.Debug("session saved", "session_id", saved.SessionID, "created", created, "routes", len(saved.RouteIDs))
	return Result{SessionID: saved.SessionID, RouteIDs: saved.RouteIDs, Created: created}, nil
}

// AttachMedia records an uploaded media URL on one stored route.
func (g *Gateway) AttachMedia(ctx context.Context, sessionID, routeID, mediaURL string) error {
	if sessionID == "" || routeID == "" || mediaURL == "" {
		return fmt.Errorf("%w: sessionId, routeId and mediaUrl are required", session.ErrInvalidArgument)
	}
	if err := g.remote.UpdateRouteMedia(ctx, sessionID, routeID, mediaURL); err != nil {
		return fmt.Errorf("attaching media to route %s: %w", routeID, err)
	}
	return nil
}

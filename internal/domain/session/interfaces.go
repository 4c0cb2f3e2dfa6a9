package session

import (
	"context"

	"github.com/rpggio/climbr/internal/domain/activity"
)

// Repository provides persistence for the session aggregate.
type Repository interface {
	CreateSession(ctx context.Context, sess *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSessionFields(ctx context.Context, id string, title, gymName *string) error
	CreateRoute(ctx context.Context, sessionID string, position int, route *Route) error
	CreateAttempt(ctx context.Context, sessionID, routeID string, position int, attempt *Attempt) error
	DeleteRoutes(ctx context.Context, sessionID string) error
	UpdateRouteMedia(ctx context.Context, sessionID, routeID, mediaURL string) error
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	ListSummaries(ctx context.Context, ownerID string) ([]Summary, error)
	ListCreatedSince(ctx context.Context, ownerID, since string) ([]Session, error)
}

// ActivityRepository records the audit trail of session writes.
type ActivityRepository interface {
	Log(ctx context.Context, ownerID string, entry *activity.Entry) error
}

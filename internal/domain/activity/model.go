package activity

import "time"

// Type represents the kind of write recorded in the activity log
type Type string

const (
	TypeSessionCreated    Type = "session_created"
	TypeSessionReplaced   Type = "session_replaced"
	TypeRouteMediaUpdated Type = "route_media_updated"
)

// Entry represents a write against a stored session
type Entry struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	SessionID string    `json:"session_id"`
	RouteID   *string   `json:"route_id,omitempty"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}

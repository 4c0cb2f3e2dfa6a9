package rpc

import "github.com/rpggio/climbr/internal/domain/session"

// Method names served on /rpc.
const (
	MethodCreateSession     = "createSession"
	MethodPutSession        = "putSession"
	MethodGetSessionByID    = "getSessionByID"
	MethodGetSessionsByUID  = "getSessionsByUID"
	MethodUpdateRouteMedia  = "updateRouteMedia"
	MethodGetUserSessions   = "getUserSessions"
	MethodGetActiveSessions = "getActiveSessions"
)

// CreateSessionParams is the payload of createSession.
type CreateSessionParams struct {
	UID      string          `json:"uid"`
	Title    string          `json:"title"`
	Location string          `json:"location"`
	IsIndoor *bool           `json:"isIndoor"`
	GymName  *string         `json:"gymName,omitempty"`
	Routes   []session.Route `json:"routes"`
}

// PutSessionParams is the payload of putSession. Routes replace the stored list.
type PutSessionParams struct {
	SessionID string          `json:"sessionId"`
	Title     *string         `json:"title,omitempty"`
	GymName   *string         `json:"gymName,omitempty"`
	Routes    []session.Route `json:"routes"`
}

// SaveResult is returned by createSession and putSession.
type SaveResult struct {
	SessionID string   `json:"sessionId"`
	RouteIDs  []string `json:"routeIds"`
}

// SessionIDParams selects one session.
type SessionIDParams struct {
	SessionID string `json:"sessionId"`
}

// SessionData is the header of a fetched session.
type SessionData struct {
	UserID    string  `json:"userId"`
	Title     string  `json:"title"`
	Location  string  `json:"location"`
	IsIndoor  bool    `json:"isIndoor"`
	GymName   *string `json:"gymName,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// GetSessionResult is returned by getSessionByID.
type GetSessionResult struct {
	SessionID   string          `json:"sessionId"`
	SessionData SessionData     `json:"sessionData"`
	RoutesData  []session.Route `json:"routesData"`
}

// UIDParams selects an owner.
type UIDParams struct {
	UID string `json:"uid"`
}

// SessionIDsResult is returned by getSessionsByUID.
type SessionIDsResult struct {
	SessionIDs []string `json:"sessionIds"`
}

// UpdateRouteMediaParams is the payload of updateRouteMedia.
type UpdateRouteMediaParams struct {
	SessionID string `json:"sessionId"`
	RouteID   string `json:"routeId"`
	MediaURL  string `json:"mediaUrl"`
}

// SuccessResult acknowledges a write without payload.
type SuccessResult struct {
	Success bool `json:"success"`
}

// UserSessionsResult is returned by getUserSessions.
type UserSessionsResult struct {
	Sessions []session.Summary `json:"sessions"`
}

// ActiveSessionsResult is returned by getActiveSessions.
type ActiveSessionsResult struct {
	ActiveSessions []session.Session `json:"activeSessions"`
}

// NewGetSessionResult splits a session into the header and route list of the wire format.
func NewGetSessionResult(sess *session.Session) GetSessionResult {
	routes := sess.Routes
	if routes == nil {
		routes = []session.Route{}
	}
	return GetSessionResult{
		SessionID: sess.ID,
		SessionData: SessionData{
			UserID:    sess.OwnerID,
			Title:     sess.Title,
			Location:  sess.Location,
			IsIndoor:  sess.IsIndoor,
			GymName:   sess.GymName,
			CreatedAt: sess.CreatedAt,
		},
		RoutesData: routes,
	}
}

// Session reassembles the aggregate from the wire format.
func (r GetSessionResult) Session() session.Session {
	routes := r.RoutesData
	if routes == nil {
		routes = []session.Route{}
	}
	return session.Session{
		ID:        r.SessionID,
		OwnerID:   r.SessionData.UserID,
		Title:     r.SessionData.Title,
		Location:  r.SessionData.Location,
		IsIndoor:  r.SessionData.IsIndoor,
		GymName:   r.SessionData.GymName,
		CreatedAt: r.SessionData.CreatedAt,
		Routes:    routes,
	}
}

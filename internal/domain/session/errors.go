package session

import "errors"

var (
	// ErrInvalidArgument indicates malformed session, route or attempt fields.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated indicates the caller identity is missing.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied indicates the caller does not own the session.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRouteNotFound indicates the route doesn't exist within the session.
	ErrRouteNotFound = errors.New("route not found")
	// ErrMalformedResponse indicates the remote returned an unusable payload.
	ErrMalformedResponse = errors.New("malformed response")
)

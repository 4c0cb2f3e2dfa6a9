package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/climbr/internal/domain/session"
)

// APIError represents a tool failure reported to the MCP client.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to tool error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Call list_sessions for valid ids"}
	case errors.Is(err, session.ErrRouteNotFound):
		return &APIError{Code: "ROUTE_NOT_FOUND", Message: "route not found"}
	case errors.Is(err, session.ErrPermissionDenied):
		return &APIError{Code: "PERMISSION_DENIED", Message: "session belongs to another user"}
	case errors.Is(err, session.ErrUnauthenticated):
		return &APIError{Code: "UNAUTHENTICATED", Message: "not signed in"}
	case errors.Is(err, session.ErrInvalidArgument):
		return &APIError{Code: "INVALID_ARGUMENT", Message: err.Error()}
	default:
		return nil
	}
}

func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return fmt.Errorf("internal error: %w", err)
}

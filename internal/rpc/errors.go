package rpc

import (
	"errors"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/transport"
)

// Application error codes carried in the JSON-RPC error data.
const (
	CodeUnauthenticated  = "unauthenticated"
	CodeInvalidArgument  = "invalid-argument"
	CodePermissionDenied = "permission-denied"
	CodeNotFound         = "not-found"
	CodeInternal         = "internal"
)

// Resources named by not-found errors.
const (
	ResourceSession = "session"
	ResourceRoute   = "route"
)

// MapError maps domain errors to JSON-RPC errors. Unrecognized errors become
// a generic internal error so storage details do not leak to callers.
func MapError(err error) *transport.Error {
	if err == nil {
		return nil
	}
	var rpcErr *transport.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	switch {
	case errors.Is(err, session.ErrInvalidArgument):
		return newError(transport.ErrInvalidParams, CodeInvalidArgument, err.Error())
	case errors.Is(err, session.ErrUnauthenticated):
		return newError(transport.ErrServer, CodeUnauthenticated, "authentication required")
	case errors.Is(err, session.ErrPermissionDenied):
		return newError(transport.ErrServer, CodePermissionDenied, "session belongs to another user")
	case errors.Is(err, session.ErrSessionNotFound):
		return notFound(ResourceSession, "session not found")
	case errors.Is(err, session.ErrRouteNotFound):
		return notFound(ResourceRoute, "route not found")
	default:
		return newError(transport.ErrInternal, CodeInternal, "internal error")
	}
}

// DomainError is the inverse of MapError, used by clients. A not-found error
// without a resource is treated as a missing session.
func DomainError(data *transport.ErrorData) error {
	if data == nil {
		return nil
	}
	switch data.Code {
	case CodeInvalidArgument:
		return session.ErrInvalidArgument
	case CodeUnauthenticated:
		return session.ErrUnauthenticated
	case CodePermissionDenied:
		return session.ErrPermissionDenied
	case CodeNotFound:
		if data.Resource == ResourceRoute {
			return session.ErrRouteNotFound
		}
		return session.ErrSessionNotFound
	default:
		return nil
	}
}

func notFound(resource, message string) *transport.Error {
	return &transport.Error{
		Code:    transport.ErrServer,
		Message: message,
		Data:    &transport.ErrorData{Code: CodeNotFound, Resource: resource},
	}
}

func newError(code int, appCode, message string) *transport.Error {
	return &transport.Error{Code: code, Message: message, Data: &transport.ErrorData{Code: appCode}}
}

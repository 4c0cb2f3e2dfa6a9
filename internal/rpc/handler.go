package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/transport"
)

// SessionService defines the session operations served over JSON-RPC.
type SessionService interface {
	Create(ctx context.Context, callerID string, sess session.Session) (*session.SaveResult, error)
	Put(ctx context.Context, callerID string, req session.PutRequest) (*session.SaveResult, error)
	Get(ctx context.Context, callerID, sessionID string) (*session.Session, error)
	ListIDs(ctx context.Context, callerID, ownerID string) ([]string, error)
	ListSummaries(ctx context.Context, callerID, ownerID string) ([]session.Summary, error)
	ListRecent(ctx context.Context, callerID, ownerID string) ([]session.Session, error)
	UpdateRouteMedia(ctx context.Context, callerID, sessionID, routeID, mediaURL string) error
}

// Handler dispatches JSON-RPC methods to the session service.
type Handler struct {
	sessions SessionService
	logger   *slog.Logger
}

// NewHandler creates a new RPC handler.
func NewHandler(sessions SessionService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, logger: logger}
}

// Handle dispatches one request. Returned errors are *transport.Error values.
func (h *Handler) Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, userID, method, params)
	if err != nil {
		rpcErr := MapError(err)
		if rpcErr.Code == transport.ErrInternal {
			h.logger.Error("rpc method failed", "method", method, "user_id", userID, "error", err)
		} else {
			h.logger.Debug("rpc method rejected", "method", method, "user_id", userID, "error", err)
		}
		return nil, rpcErr
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	switch method {
	case MethodCreateSession:
		var req CreateSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.IsIndoor == nil {
			return nil, fmt.Errorf("%w: isIndoor is required", session.ErrInvalidArgument)
		}
		result, err := h.sessions.Create(ctx, userID, session.Session{
			OwnerID:  req.UID,
			Title:    req.Title,
			Location: req.Location,
			IsIndoor: *req.IsIndoor,
			GymName:  req.GymName,
			Routes:   req.Routes,
		})
		if err != nil {
			return nil, err
		}
		return SaveResult{SessionID: result.SessionID, RouteIDs: result.RouteIDs}, nil
	case MethodPutSession:
		var req PutSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		result, err := h.sessions.Put(ctx, userID, session.PutRequest{
			SessionID: req.SessionID,
			Title:     req.Title,
			GymName:   req.GymName,
			Routes:    req.Routes,
		})
		if err != nil {
			return nil, err
		}
		return SaveResult{SessionID: result.SessionID, RouteIDs: result.RouteIDs}, nil
	case MethodGetSessionByID:
		var req SessionIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.sessions.Get(ctx, userID, req.SessionID)
		if err != nil {
			return nil, err
		}
		return NewGetSessionResult(sess), nil
	case MethodGetSessionsByUID:
		var req UIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		ids, err := h.sessions.ListIDs(ctx, userID, req.UID)
		if err != nil {
			return nil, err
		}
		return SessionIDsResult{SessionIDs: ids}, nil
	case MethodUpdateRouteMedia:
		var req UpdateRouteMediaParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.sessions.UpdateRouteMedia(ctx, userID, req.SessionID, req.RouteID, req.MediaURL); err != nil {
			return nil, err
		}
		return SuccessResult{Success: true}, nil
	case MethodGetUserSessions:
		var req UIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		summaries, err := h.sessions.ListSummaries(ctx, userID, req.UID)
		if err != nil {
			return nil, err
		}
		return UserSessionsResult{Sessions: summaries}, nil
	case MethodGetActiveSessions:
		var req UIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sessions, err := h.sessions.ListRecent(ctx, userID, req.UID)
		if err != nil {
			return nil, err
		}
		return ActiveSessionsResult{ActiveSessions: sessions}, nil
	default:
		return nil, &transport.Error{Code: transport.ErrMethodNotFound, Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: malformed params: %v", session.ErrInvalidArgument, err)
	}
	return nil
}

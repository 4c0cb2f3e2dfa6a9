package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/transport"
	"github.com/stretchr/testify/require"
)

type sessionStub struct {
	createFn      func(context.Context, string, session.Session) (*session.SaveResult, error)
	putFn         func(context.Context, string, session.PutRequest) (*session.SaveResult, error)
	getFn         func(context.Context, string, string) (*session.Session, error)
	listIDsFn     func(context.Context, string, string) ([]string, error)
	summariesFn   func(context.Context, string, string) ([]session.Summary, error)
	recentFn      func(context.Context, string, string) ([]session.Session, error)
	updateMediaFn func(context.Context, string, string, string, string) error
}

func (s sessionStub) Create(ctx context.Context, callerID string, sess session.Session) (*session.SaveResult, error) {
	return s.createFn(ctx, callerID, sess)
}
func (s sessionStub) Put(ctx context.Context, callerID string, req session.PutRequest) (*session.SaveResult, error) {
	return s.putFn(ctx, callerID, req)
}
func (s sessionStub) Get(ctx context.Context, callerID, sessionID string) (*session.Session, error) {
	return s.getFn(ctx, callerID, sessionID)
}
func (s sessionStub) ListIDs(ctx context.Context, callerID, ownerID string) ([]string, error) {
	return s.listIDsFn(ctx, callerID, ownerID)
}
func (s sessionStub) ListSummaries(ctx context.Context, callerID, ownerID string) ([]session.Summary, error) {
	return s.summariesFn(ctx, callerID, ownerID)
}
func (s sessionStub) ListRecent(ctx context.Context, callerID, ownerID string) ([]session.Session, error) {
	return s.recentFn(ctx, callerID, ownerID)
}
func (s sessionStub) UpdateRouteMedia(ctx context.Context, callerID, sessionID, routeID, mediaURL string) error {
	return s.updateMediaFn(ctx, callerID, sessionID, routeID, mediaURL)
}

func rpcCode(t *testing.T, err error) (int, string) {
	t.Helper()
	var rpcErr *transport.Error
	require.ErrorAs(t, err, &rpcErr)
	if rpcErr.Data == nil {
		return rpcErr.Code, ""
	}
	return rpcErr.Code, rpcErr.Data.Code
}

func TestHandler_CreateSession(t *testing.T) {
	var got session.Session
	h := NewHandler(sessionStub{
		createFn: func(_ context.Context, callerID string, sess session.Session) (*session.SaveResult, error) {
			require.Equal(t, "user1", callerID)
			got = sess
			return &session.SaveResult{SessionID: "s1", RouteIDs: []string{"r1"}}, nil
		},
	}, nil)

	params := json.RawMessage(`{"uid":"user1","title":"Evening","location":"Gym - Cave","isIndoor":false,
		"routes":[{"id":"r1","routeName":"Arete","difficulty":"V2","tags":["slab"],"attempts":[{"id":"a1","success":true,"createdAt":"2026-10-18T10:00:00.000Z"}]}]}`)
	result, err := h.Handle(context.Background(), "user1", MethodCreateSession, params)
	require.NoError(t, err)
	require.Equal(t, SaveResult{SessionID: "s1", RouteIDs: []string{"r1"}}, result)
	require.Equal(t, "user1", got.OwnerID)
	require.False(t, got.IsIndoor)
	require.Len(t, got.Routes, 1)
	require.Equal(t, "Arete", got.Routes[0].Name)
	require.True(t, got.Routes[0].Attempts[0].Success)
}

func TestHandler_CreateSession_MissingIsIndoor(t *testing.T) {
	h := NewHandler(sessionStub{}, nil)
	_, err := h.Handle(context.Background(), "user1", MethodCreateSession,
		json.RawMessage(`{"uid":"user1","title":"t","location":"l","routes":[]}`))
	code, appCode := rpcCode(t, err)
	require.Equal(t, transport.ErrInvalidParams, code)
	require.Equal(t, CodeInvalidArgument, appCode)
}

func TestHandler_PutSession(t *testing.T) {
	h := NewHandler(sessionStub{
		putFn: func(_ context.Context, _ string, req session.PutRequest) (*session.SaveResult, error) {
			require.Equal(t, "s1", req.SessionID)
			require.Nil(t, req.Title)
			require.Equal(t, "https://cdn/x.jpg", session.StringValue(req.Routes[0].MediaURI))
			return &session.SaveResult{SessionID: "s1", RouteIDs: []string{"B"}}, nil
		},
	}, nil)

	result, err := h.Handle(context.Background(), "user1", MethodPutSession, json.RawMessage(
		`{"sessionId":"s1","routes":[{"id":"B","routeName":"B","difficulty":"V3","tags":[],"attempts":[],"mediaUrl":"https://cdn/x.jpg"}]}`))
	require.NoError(t, err)
	require.Equal(t, SaveResult{SessionID: "s1", RouteIDs: []string{"B"}}, result)
}

func TestHandler_GetSessionByID(t *testing.T) {
	gym := "Boulder Barn"
	h := NewHandler(sessionStub{
		getFn: func(context.Context, string, string) (*session.Session, error) {
			return &session.Session{ID: "s1", OwnerID: "user1", Title: "T", Location: "L", GymName: &gym, CreatedAt: "2026-10-18T10:00:00.000Z"}, nil
		},
	}, nil)

	result, err := h.Handle(context.Background(), "user2", MethodGetSessionByID, json.RawMessage(`{"sessionId":"s1"}`))
	require.NoError(t, err)
	get := result.(GetSessionResult)
	require.Equal(t, "s1", get.SessionID)
	require.Equal(t, "user1", get.SessionData.UserID)
	require.NotNil(t, get.RoutesData)

	sess := get.Session()
	require.Equal(t, "s1", sess.ID)
	require.Equal(t, "Boulder Barn", session.StringValue(sess.GymName))
}

func TestHandler_Lists(t *testing.T) {
	h := NewHandler(sessionStub{
		listIDsFn: func(context.Context, string, string) ([]string, error) { return []string{}, nil },
		summariesFn: func(context.Context, string, string) ([]session.Summary, error) {
			return []session.Summary{{ID: "s1", RoutesCount: 3}}, nil
		},
		recentFn: func(context.Context, string, string) ([]session.Session, error) {
			return []session.Session{{ID: "s1"}}, nil
		},
		updateMediaFn: func(context.Context, string, string, string, string) error { return nil },
	}, nil)
	ctx := context.Background()

	result, err := h.Handle(ctx, "user1", MethodGetSessionsByUID, json.RawMessage(`{"uid":"user1"}`))
	require.NoError(t, err)
	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	require.JSONEq(t, `{"sessionIds":[]}`, string(encoded))

	result, err = h.Handle(ctx, "user1", MethodGetUserSessions, json.RawMessage(`{"uid":"user1"}`))
	require.NoError(t, err)
	require.Equal(t, 3, result.(UserSessionsResult).Sessions[0].RoutesCount)

	result, err = h.Handle(ctx, "user1", MethodGetActiveSessions, json.RawMessage(`{"uid":"user1"}`))
	require.NoError(t, err)
	require.Len(t, result.(ActiveSessionsResult).ActiveSessions, 1)

	result, err = h.Handle(ctx, "user1", MethodUpdateRouteMedia, json.RawMessage(`{"sessionId":"s1","routeId":"r1","mediaUrl":"https://cdn/x"}`))
	require.NoError(t, err)
	require.Equal(t, SuccessResult{Success: true}, result)
}

func TestHandler_ErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		appCode string
	}{
		{"invalid", session.ErrInvalidArgument, transport.ErrInvalidParams, CodeInvalidArgument},
		{"unauthenticated", session.ErrUnauthenticated, transport.ErrServer, CodeUnauthenticated},
		{"forbidden", session.ErrPermissionDenied, transport.ErrServer, CodePermissionDenied},
		{"missing session", session.ErrSessionNotFound, transport.ErrServer, CodeNotFound},
		{"missing route", session.ErrRouteNotFound, transport.ErrServer, CodeNotFound},
		{"storage", errors.New("disk I/O error"), transport.ErrInternal, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(sessionStub{
				getFn: func(context.Context, string, string) (*session.Session, error) { return nil, tt.err },
			}, nil)
			_, err := h.Handle(context.Background(), "user1", MethodGetSessionByID, json.RawMessage(`{"sessionId":"s1"}`))
			code, appCode := rpcCode(t, err)
			require.Equal(t, tt.code, code)
			require.Equal(t, tt.appCode, appCode)
			require.NotContains(t, err.Error(), "disk")

			if tt.appCode != CodeInternal {
				var rpcErr *transport.Error
				require.ErrorAs(t, err, &rpcErr)
				require.ErrorIs(t, DomainError(rpcErr.Data), tt.err)
			}
		})
	}
}

func TestHandler_UnknownMethodAndBadParams(t *testing.T) {
	h := NewHandler(sessionStub{}, nil)

	_, err := h.Handle(context.Background(), "user1", "dropTables", nil)
	code, _ := rpcCode(t, err)
	require.Equal(t, transport.ErrMethodNotFound, code)

	_, err = h.Handle(context.Background(), "user1", MethodPutSession, json.RawMessage(`{"routes":"nope"}`))
	_, appCode := rpcCode(t, err)
	require.Equal(t, CodeInvalidArgument, appCode)
}

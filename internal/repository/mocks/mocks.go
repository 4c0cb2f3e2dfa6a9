package mocks

import (
	"context"

	"github.com/rpggio/climbr/internal/domain/activity"
	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) CreateSession(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) GetSession(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) UpdateSessionFields(ctx context.Context, id string, title, gymName *string) error {
	args := m.Called(ctx, id, title, gymName)
	return args.Error(0)
}

func (m *SessionRepository) CreateRoute(ctx context.Context, sessionID string, position int, route *session.Route) error {
	args := m.Called(ctx, sessionID, position, route)
	return args.Error(0)
}

func (m *SessionRepository) CreateAttempt(ctx context.Context, sessionID, routeID string, position int, attempt *session.Attempt) error {
	args := m.Called(ctx, sessionID, routeID, position, attempt)
	return args.Error(0)
}

func (m *SessionRepository) DeleteRoutes(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *SessionRepository) UpdateRouteMedia(ctx context.Context, sessionID, routeID, mediaURL string) error {
	args := m.Called(ctx, sessionID, routeID, mediaURL)
	return args.Error(0)
}

func (m *SessionRepository) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	args := m.Called(ctx, ownerID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ListSummaries(ctx context.Context, ownerID string) ([]session.Summary, error) {
	args := m.Called(ctx, ownerID)
	if list, ok := args.Get(0).([]session.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) ListCreatedSince(ctx context.Context, ownerID, since string) ([]session.Session, error) {
	args := m.Called(ctx, ownerID, since)
	if list, ok := args.Get(0).([]session.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, ownerID string, entry *activity.Entry) error {
	args := m.Called(ctx, ownerID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, ownerID string, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, ownerID, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Remote is a mock for gateway.Remote.
type Remote struct {
	mock.Mock
}

func (m *Remote) CreateSession(ctx context.Context, sess session.Session) (*session.SaveResult, error) {
	args := m.Called(ctx, sess)
	if result, ok := args.Get(0).(*session.SaveResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Remote) PutSession(ctx context.Context, req session.PutRequest) (*session.SaveResult, error) {
	args := m.Called(ctx, req)
	if result, ok := args.Get(0).(*session.SaveResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Remote) GetSessionByID(ctx context.Context, sessionID string) (*session.Session, error) {
	args := m.Called(ctx, sessionID)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Remote) GetSessionsByUID(ctx context.Context, uid string) ([]string, error) {
	args := m.Called(ctx, uid)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Remote) UpdateRouteMedia(ctx context.Context, sessionID, routeID, mediaURL string) error {
	args := m.Called(ctx, sessionID, routeID, mediaURL)
	return args.Error(0)
}

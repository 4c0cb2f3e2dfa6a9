package history_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/history"
	"github.com/rpggio/climbr/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stored(id, createdAt string, routes int) *session.Session {
	sess := &session.Session{ID: id, OwnerID: "user1", Title: id, Location: "Gym", CreatedAt: createdAt, Routes: []session.Route{}}
	for i := 0; i < routes; i++ {
		sess.Routes = append(sess.Routes, session.Route{ID: id + "-r", Name: "R", Difficulty: "V1", Tags: []string{}, Attempts: []session.Attempt{}})
	}
	return sess
}

func TestLoader_PartialFailure(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.Remote{}
	remote.On("GetSessionsByUID", ctx, "user1").Return([]string{"S1", "S2", "S3"}, nil)
	remote.On("GetSessionByID", ctx, "S1").Return(stored("S1", "2026-10-16T10:00:00.000Z", 1), nil)
	remote.On("GetSessionByID", ctx, "S2").Return(nil, errors.New("timeout"))
	remote.On("GetSessionByID", ctx, "S3").Return(stored("S3", "2026-10-18T10:00:00.000Z", 2), nil)

	sessions, err := history.NewLoader(remote, 0, nil).Load(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "S3", sessions[0].ID)
	require.Equal(t, "S1", sessions[1].ID)
	remote.AssertNumberOfCalls(t, "GetSessionByID", 3)
}

func TestLoader_ListFailure(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.Remote{}
	remote.On("GetSessionsByUID", ctx, "user1").Return(nil, session.ErrUnauthenticated)

	_, err := history.NewLoader(remote, 2, nil).Load(ctx, "user1")
	require.ErrorIs(t, err, session.ErrUnauthenticated)
	remote.AssertNotCalled(t, "GetSessionByID", mock.Anything, mock.Anything)
}

func TestLoader_Empty(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.Remote{}
	remote.On("GetSessionsByUID", ctx, "nobody").Return([]string{}, nil)

	sessions, err := history.NewLoader(remote, 0, nil).Load(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, sessions)
	require.Empty(t, sessions)
}

type countingRemote struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingRemote) GetSessionsByUID(context.Context, string) ([]string, error) {
	return []string{"a", "b", "c", "d", "e", "f", "g", "h"}, nil
}

func (c *countingRemote) GetSessionByID(_ context.Context, id string) (*session.Session, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return stored(id, "2026-10-18T10:00:00.000Z", 0), nil
}

func TestLoader_ConcurrencyLimit(t *testing.T) {
	remote := &countingRemote{}
	sessions, err := history.NewLoader(remote, 2, nil).Load(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, sessions, 8)
	require.LessOrEqual(t, remote.peak.Load(), int32(2))

	// Equal timestamps fall back to id order
	require.Equal(t, "a", sessions[0].ID)
	require.Equal(t, "h", sessions[7].ID)
}

func TestLoader_Summaries(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.Remote{}
	remote.On("GetSessionsByUID", ctx, "user1").Return([]string{"S1"}, nil)
	remote.On("GetSessionByID", ctx, "S1").Return(stored("S1", "2026-10-16T10:00:00.000Z", 3), nil)

	summaries, err := history.NewLoader(remote, 0, nil).Summaries(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, 3, summaries[0].RoutesCount)
}

func TestSortNewestFirst(t *testing.T) {
	sessions := []session.Session{
		{ID: "b", CreatedAt: "2026-10-18T10:00:00Z"},
		{ID: "c", CreatedAt: "2026-10-18T12:00:00+02:00"},
		{ID: "a", CreatedAt: "2026-10-18T10:00:00.000Z"},
		{ID: "d", CreatedAt: "2026-10-19T08:00:00.000Z"},
	}
	history.SortNewestFirst(sessions)

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	require.Equal(t, []string{"d", "a", "b", "c"}, ids)
}

package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/climbr/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.Entry{
		SessionID: "s1",
		Type:      activity.TypeSessionCreated,
		Summary:   "created session s1",
		Details:   `{"routes":2}`,
	}
	entry2 := &activity.Entry{
		SessionID: "s1",
		Type:      activity.TypeSessionReplaced,
		Summary:   "replaced 2 routes with 1",
	}

	require.NoError(t, repo.Log(ctx, "user1", entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, "user1", entry2))
	require.NotZero(t, entry1.ID)
	require.Equal(t, "user1", entry2.OwnerID)

	entries, err := repo.List(ctx, "user1", activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.Type, entries[0].Type)
	require.Equal(t, entry1.Type, entries[1].Type)

	entries, err = repo.List(ctx, "user1", activity.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry1.Type, entries[0].Type)
}

func TestActivityRepository_FiltersAndOwnerIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	routeID := "r1"
	require.NoError(t, repo.Log(ctx, "user1", &activity.Entry{
		SessionID: "s1",
		RouteID:   &routeID,
		Type:      activity.TypeRouteMediaUpdated,
		Summary:   "updated media for route r1",
	}))
	require.NoError(t, repo.Log(ctx, "user1", &activity.Entry{
		SessionID: "s2",
		Type:      activity.TypeSessionCreated,
		Summary:   "created session s2",
	}))

	sessionID := "s1"
	activityType := activity.TypeRouteMediaUpdated
	entries, err := repo.List(ctx, "user1", activity.ListOptions{SessionID: &sessionID, Type: &activityType})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].RouteID)
	require.Equal(t, "r1", *entries[0].RouteID)

	entries, err = repo.List(ctx, "user2", activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 0)
}

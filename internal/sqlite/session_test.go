package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	gym := "Movement"
	notes := "heel hook at top"
	sess := &session.Session{
		ID:        "s1",
		OwnerID:   "user1",
		Title:     "Tuesday",
		Location:  "Movement - Cave",
		IsIndoor:  true,
		GymName:   &gym,
		CreatedAt: "2026-10-18T10:00:00.000Z",
	}
	require.NoError(t, repo.CreateSession(ctx, sess))
	require.ErrorIs(t, repo.CreateSession(ctx, sess), repository.ErrDuplicate)

	require.NoError(t, repo.CreateRoute(ctx, "s1", 0, &session.Route{
		ID: "r2", Name: "Second", Difficulty: "V4", Tags: []string{"crimp", "roof"}, Notes: &notes,
	}))
	require.NoError(t, repo.CreateRoute(ctx, "s1", 1, &session.Route{
		ID: "r1", Name: "First", Difficulty: "V1",
	}))
	require.NoError(t, repo.CreateAttempt(ctx, "s1", "r2", 0, &session.Attempt{ID: "a2", Success: false, CreatedAt: "2026-10-18T10:01:00.000Z"}))
	require.NoError(t, repo.CreateAttempt(ctx, "s1", "r2", 1, &session.Attempt{ID: "a1", Success: true, CreatedAt: "2026-10-18T10:02:00.000Z"}))

	loaded, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "user1", loaded.OwnerID)
	require.True(t, loaded.IsIndoor)
	require.Equal(t, "Movement", session.StringValue(loaded.GymName))
	require.Len(t, loaded.Routes, 2)

	require.Equal(t, "r2", loaded.Routes[0].ID)
	require.Equal(t, []string{"crimp", "roof"}, loaded.Routes[0].Tags)
	require.Equal(t, notes, session.StringValue(loaded.Routes[0].Notes))
	require.Len(t, loaded.Routes[0].Attempts, 2)
	require.Equal(t, "a2", loaded.Routes[0].Attempts[0].ID)
	require.True(t, loaded.Routes[0].Attempts[1].Success)

	require.Equal(t, "r1", loaded.Routes[1].ID)
	require.NotNil(t, loaded.Routes[1].Tags)
	require.Empty(t, loaded.Routes[1].Tags)
	require.NotNil(t, loaded.Routes[1].Attempts)
	require.Nil(t, loaded.Routes[1].MediaURI)

	_, err = repo.GetSession(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_RouteConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)
	insertSession(t, db, "s1", "user1", "2026-10-18T10:00:00.000Z")
	insertSession(t, db, "s2", "user1", "2026-10-18T11:00:00.000Z")

	route := &session.Route{ID: "r1", Name: "Arete", Difficulty: "V2", Tags: []string{}}
	require.ErrorIs(t, repo.CreateRoute(ctx, "nope", 0, route), repository.ErrForeignKeyViolation)
	require.NoError(t, repo.CreateRoute(ctx, "s1", 0, route))
	require.ErrorIs(t, repo.CreateRoute(ctx, "s1", 1, route), repository.ErrDuplicate)

	// The same client id may appear in another session
	require.NoError(t, repo.CreateRoute(ctx, "s2", 0, route))

	err := repo.CreateAttempt(ctx, "s1", "unknown", 0, &session.Attempt{ID: "a1", CreatedAt: "2026-10-18T10:00:00.000Z"})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestSessionRepository_ReplaceRoutes(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)
	insertSession(t, db, "s1", "user1", "2026-10-18T10:00:00.000Z")

	require.NoError(t, repo.CreateRoute(ctx, "s1", 0, &session.Route{ID: "A", Name: "A", Difficulty: "V1", Tags: []string{}}))
	require.NoError(t, repo.CreateRoute(ctx, "s1", 1, &session.Route{ID: "B", Name: "B", Difficulty: "V2", Tags: []string{}}))
	require.NoError(t, repo.CreateAttempt(ctx, "s1", "A", 0, &session.Attempt{ID: "a1", CreatedAt: "2026-10-18T10:00:00.000Z"}))

	require.NoError(t, repo.DeleteRoutes(ctx, "s1"))
	require.NoError(t, repo.CreateRoute(ctx, "s1", 0, &session.Route{ID: "B", Name: "B edited", Difficulty: "V3", Tags: []string{}}))

	title := "Renamed"
	require.NoError(t, repo.UpdateSessionFields(ctx, "s1", &title, nil))
	require.NoError(t, repo.UpdateSessionFields(ctx, "s1", nil, nil))
	require.ErrorIs(t, repo.UpdateSessionFields(ctx, "nope", &title, nil), repository.ErrNotFound)

	loaded, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", loaded.Title)
	require.Len(t, loaded.Routes, 1)
	require.Equal(t, "B edited", loaded.Routes[0].Name)
	require.Empty(t, loaded.Routes[0].Attempts)

	require.NoError(t, repo.UpdateRouteMedia(ctx, "s1", "B", "https://cdn.example.com/b.jpg"))
	require.ErrorIs(t, repo.UpdateRouteMedia(ctx, "s1", "A", "https://cdn.example.com/a.jpg"), repository.ErrNotFound)

	loaded, err = repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/b.jpg", session.StringValue(loaded.Routes[0].MediaURI))
}

func TestSessionRepository_Listing(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)
	insertSession(t, db, "old", "user1", "2026-10-16T09:00:00.000Z")
	insertSession(t, db, "new", "user1", "2026-10-18T09:00:00.000Z")
	insertSession(t, db, "other", "user2", "2026-10-18T10:00:00.000Z")
	require.NoError(t, repo.CreateRoute(ctx, "new", 0, &session.Route{ID: "r1", Name: "X", Difficulty: "V0", Tags: []string{}}))

	ids, err := repo.ListIDsByOwner(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, []string{"new", "old"}, ids)

	ids, err = repo.ListIDsByOwner(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, ids)

	summaries, err := repo.ListSummaries(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "new", summaries[0].ID)
	require.Equal(t, 1, summaries[0].RoutesCount)
	require.Equal(t, 0, summaries[1].RoutesCount)

	recent, err := repo.ListCreatedSince(ctx, "user1", "2026-10-17T12:00:00.000Z")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "new", recent[0].ID)
	require.Len(t, recent[0].Routes, 1)
}

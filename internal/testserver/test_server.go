package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/climbr/internal/domain/activity"
	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/identity"
	"github.com/rpggio/climbr/internal/mcp"
	"github.com/rpggio/climbr/internal/rpc"
	"github.com/rpggio/climbr/internal/sqlite"
	"github.com/rpggio/climbr/internal/transport"
	"github.com/stretchr/testify/require"
)

// JWTSecret signs tokens accepted by every test server.
var JWTSecret = []byte("testserver-secret")

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Sessions *session.Service
	Token    string
	UserID   string
}

// New starts an HTTP server over a private in-memory database. token is
// registered as an API key for userID.
func New(t *testing.T, token, userID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	activitySvc := activity.NewService(activityRepo, nil)
	sessionSvc := session.NewService(sessionRepo, activityRepo, nil)

	resolver := identity.Chain{
		identity.NewAPIKeyResolver(apiKeys),
		identity.NewJWTResolver(JWTSecret),
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Sessions: sessionSvc,
			Activity: activitySvc,
		},
		Resolver:      resolver,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	handler := rpc.NewHandler(sessionSvc, nil)
	server := httptest.NewServer(transport.NewServer(handler, transport.AuthMiddleware(resolver), mcpHandler))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Sessions: sessionSvc,
		Token:    token,
		UserID:   userID,
	}

	require.NoError(t, ts.AddAPIKey(token, userID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another opaque key.
func (ts *TestServer) AddAPIKey(token, userID string) error {
	return sqlite.NewAPIKeyRepository(ts.DB).Create(context.Background(), identity.HashToken(token), userID, "test")
}

// IssueToken returns a JWT for userID valid for an hour.
func (ts *TestServer) IssueToken(userID string) (string, error) {
	return identity.IssueToken(JWTSecret, userID, time.Hour, time.Now())
}

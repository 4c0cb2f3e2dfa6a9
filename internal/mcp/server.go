package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/climbr/internal/domain/activity"
	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/identity"
)

// SessionService defines the read operations exposed as tools.
type SessionService interface {
	Get(ctx context.Context, callerID, sessionID string) (*session.Session, error)
	ListSummaries(ctx context.Context, callerID, ownerID string) ([]session.Summary, error)
	ListRecent(ctx context.Context, callerID, ownerID string) ([]session.Session, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, ownerID string, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Sessions SessionService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      identity.Resolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	// DefaultUser is the caller identity when auth is off.
	DefaultUser string
	Version     string
	Logger      *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "default"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "climbr",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and never authenticates.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled || cfg.Resolver == nil {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultUser))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}

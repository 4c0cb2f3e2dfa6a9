package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/climbr/internal/domain/session"
	"github.com/rpggio/climbr/internal/identity"
)

// callerID extracts the authenticated user from context.
func callerID(ctx context.Context) (string, error) {
	userID, ok := identity.UserIDFromContext(ctx)
	if !ok {
		return "", session.ErrUnauthenticated
	}
	return userID, nil
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver identity.Resolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Protocol handshake carries no user data.
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			userID, err := resolver.ResolveUser(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if userID == "" {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			return next(identity.WithUserID(ctx, userID), method, req)
		}
	}
}

// noAuthMiddleware injects a fixed user when auth is disabled.
func noAuthMiddleware(defaultUser string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(identity.WithUserID(ctx, defaultUser), method, req)
		}
	}
}

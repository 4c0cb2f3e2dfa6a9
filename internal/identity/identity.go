package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/climbr/internal/domain/session"
)

// ErrInvalidToken indicates a bearer token no resolver accepted.
var ErrInvalidToken = errors.New("invalid token")

type userKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserIDFromContext returns the user id from context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}

// Resolver resolves a user id from a bearer token.
type Resolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// Chain tries each resolver in order and returns the first user id resolved.
type Chain []Resolver

func (c Chain) ResolveUser(ctx context.Context, token string) (string, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		userID, err := r.ResolveUser(ctx, token)
		if err == nil && userID != "" {
			return userID, nil
		}
	}
	return "", ErrInvalidToken
}

// KeyStore looks up the owner of a hashed API key.
type KeyStore interface {
	LookupUser(ctx context.Context, keyHash string) (string, error)
}

// APIKeyResolver resolves opaque API keys stored as SHA-256 hashes.
type APIKeyResolver struct {
	keys KeyStore
}

// NewAPIKeyResolver creates a resolver backed by keys.
func NewAPIKeyResolver(keys KeyStore) *APIKeyResolver {
	return &APIKeyResolver{keys: keys}
}

func (r *APIKeyResolver) ResolveUser(ctx context.Context, token string) (string, error) {
	userID, err := r.keys.LookupUser(ctx, HashToken(token))
	if err != nil || userID == "" {
		return "", fmt.Errorf("%w: unknown api key", ErrInvalidToken)
	}
	return userID, nil
}

// HashToken returns the hex SHA-256 of token, the form API keys are stored in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Provider reports the signed-in user on the client side.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Static is a Provider for a fixed user id. The empty value is signed out.
type Static string

func (s Static) CurrentUserID(context.Context) (string, error) {
	id := strings.TrimSpace(string(s))
	if id == "" {
		return "", session.ErrUnauthenticated
	}
	return id, nil
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is the iss claim written and expected on session tokens.
const DefaultIssuer = "climbr"

// JWTResolver accepts HS256 tokens whose subject is the user id.
type JWTResolver struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTResolver creates a resolver verifying tokens signed with secret.
func NewJWTResolver(secret []byte) *JWTResolver {
	return &JWTResolver{secret: secret, issuer: DefaultIssuer, now: time.Now}
}

func (r *JWTResolver) ResolveUser(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || len(r.secret) == 0 {
		return "", ErrInvalidToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(r.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: sub is required", ErrInvalidToken)
	}
	return subject, nil
}

// IssueToken signs an HS256 token for userID valid for ttl from now.
func IssueToken(secret []byte, userID string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    DefaultIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: token expired", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: signature is invalid", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: malformed token", ErrInvalidToken)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

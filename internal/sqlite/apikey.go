package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/climbr/internal/repository"
)

// APIKeyRepository stores hashed API keys and the user each one belongs to
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a key hash for userID
func (r *APIKeyRepository) Create(ctx context.Context, keyHash, userID, description string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, description) VALUES (?, ?, ?)`,
		keyHash, userID, description)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// LookupUser returns the user owning keyHash and stamps last_used
func (r *APIKeyRepository) LookupUser(ctx context.Context, keyHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, keyHash).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), keyHash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}

	return userID, nil
}

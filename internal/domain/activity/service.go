package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, ownerID string, entry *Entry) error {
	if entry == nil || entry.SessionID == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, ownerID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists the owner's activity entries, newest first.
func (s *Service) GetRecentActivity(ctx context.Context, ownerID string, opts ListOptions) ([]Entry, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	return s.repo.List(ctx, ownerID, opts)
}

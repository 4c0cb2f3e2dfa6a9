package history

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/rpggio/climbr/internal/domain/session"
)

// DefaultConcurrency bounds parallel detail fetches.
const DefaultConcurrency = 4

// Remote is the read side of the persistence service.
type Remote interface {
	GetSessionsByUID(ctx context.Context, uid string) ([]string, error)
	GetSessionByID(ctx context.Context, sessionID string) (*session.Session, error)
}

// Loader fetches a user's sessions in two phases: the id list, then each
// session's details.
type Loader struct {
	remote      Remote
	concurrency int
	logger      *slog.Logger
}

// NewLoader creates a Loader. concurrency <= 0 uses DefaultConcurrency.
func NewLoader(remote Remote, concurrency int, logger *slog.Logger) *Loader {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{remote: remote, concurrency: concurrency, logger: logger}
}

// Load returns the user's sessions, newest first. A failed detail fetch is
// logged and that session skipped; only a failed id listing fails Load.
func (l *Loader) Load(ctx context.Context, userID string) ([]session.Session, error) {
	ids, err := l.remote.GetSessionsByUID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions for %s: %w", userID, err)
	}

	slots := make([]*session.Session, len(ids))
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			sess, err := l.remote.GetSessionByID(ctx, id)
			if err != nil {
				l.logger.Warn("skipping session", "session_id", id, "error", err)
				return nil
			}
			if sess == nil {
				l.logger.Warn("skipping session", "session_id", id, "error", "empty response")
				return nil
			}
			slots[i] = sess
			return nil
		})
	}
	_ = g.Wait()

	sessions := make([]session.Session, 0, len(slots))
	for _, sess := range slots {
		if sess != nil {
			sessions = append(sessions, *sess)
		}
	}
	SortNewestFirst(sessions)

	l.logger.Debug("history loaded", "user_id", userID, "listed", len(ids), "loaded", len(sessions))
	return sessions, nil
}

// Summaries returns the list view of Load.
func (l *Loader) Summaries(ctx context.Context, userID string) ([]session.Summary, error) {
	sessions, err := l.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]session.Summary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sess.Summarize())
	}
	return summaries, nil
}

// SortNewestFirst orders sessions by CreatedAt descending, then by id.
// Unparseable timestamps compare as strings.
func SortNewestFirst(sessions []session.Session) {
	slices.SortStableFunc(sessions, func(a, b session.Session) int {
		if c := compareCreatedAt(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func compareCreatedAt(a, b string) int {
	ta, errA := session.ParseTimestamp(a)
	tb, errB := session.ParseTimestamp(b)
	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}
	return ta.Compare(tb)
}

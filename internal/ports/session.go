package ports

import (
	"context"

	"tradlyst/internal/domain"
)

// SessionProvider exposes the authenticated user, if any.
type SessionProvider interface {
	// CurrentUserID returns the active user's ID, or false when unauthenticated.
	CurrentUserID(ctx context.Context) (string, bool)
}

// ProgressReporter receives row-level progress while an import runs.
type ProgressReporter interface {
	ReportProgress(ctx context.Context, done, total int)
}

// ImportNotifier is told about every finished import run.
type ImportNotifier interface {
	ImportCompleted(ctx context.Context, userID string, outcome *domain.ImportOutcome) error
}

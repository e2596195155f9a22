package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"tradlyst/config"
	"tradlyst/internal/csvimport"
	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// ImportService orchestrates CSV trade imports: guarding against concurrent
// and repeated submissions, validating the file, and persisting each row.
type ImportService struct {
	cfg      *config.Config
	logger   ports.Logger
	store    ports.TradeStore
	session  ports.SessionProvider
	book     *TradeBook
	notifier ports.ImportNotifier // Optional
	limiter  *rate.Limiter        // Nil when rows are not paced

	newID func() string
	now   func() time.Time

	// State fields
	mu         sync.Mutex // Protects inProgress and recent
	inProgress bool
	recent     *cache.Cache // Fingerprint keys of recently processed files
}

// NewImportService creates a new import service instance.
func NewImportService(
	cfg *config.Config,
	logger ports.Logger,
	store ports.TradeStore,
	session ports.SessionProvider,
	book *TradeBook,
	notifier ports.ImportNotifier,
) (*ImportService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || store == nil || session == nil || book == nil {
		return nil, fmt.Errorf("missing required dependencies for ImportService")
	}

	// Validate config values needed by service
	if cfg.DuplicateWindow < 0 {
		return nil, fmt.Errorf("configuration DuplicateWindow cannot be negative")
	}
	if cfg.RowDelay < 0 {
		return nil, fmt.Errorf("configuration RowDelay cannot be negative")
	}

	var limiter *rate.Limiter
	if cfg.RowDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RowDelay), 1)
	}

	return &ImportService{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		session:  session,
		book:     book,
		notifier: notifier,
		limiter:  limiter,
		newID:    uuid.NewString,
		now:      time.Now,
		recent:   cache.New(cache.NoExpiration, time.Minute),
	}, nil
}

// ImportFile reads the CSV file at path and imports it.
func (s *ImportService) ImportFile(ctx context.Context, path string, progress ports.ProgressReporter) (*domain.ImportOutcome, error) {
	src, err := csvimport.ReadFile(path)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to read CSV file", map[string]interface{}{"path": path})
		return nil, err
	}
	return s.ImportSource(ctx, src, progress)
}

// ImportSource parses, validates and imports an already loaded file.
// Nothing is written unless every row passes validation.
func (s *ImportService) ImportSource(ctx context.Context, src *csvimport.Source, progress ports.ProgressReporter) (*domain.ImportOutcome, error) {
	key := src.Fingerprint.Key()
	if err := s.begin(key); err != nil {
		s.logger.Warn(ctx, "Import rejected", map[string]interface{}{"file": src.Fingerprint.Name, "reason": err.Error()})
		return nil, err
	}
	defer s.finish(key)

	parsed, err := csvimport.Parse(src.Text)
	if err != nil {
		s.logger.Warn(ctx, "CSV parsing failed", map[string]interface{}{"file": src.Fingerprint.Name, "error": err.Error()})
		return nil, err
	}

	result := csvimport.Validate(parsed)
	if err := csvimport.Check(result); err != nil {
		s.logger.Warn(ctx, "CSV validation failed", map[string]interface{}{
			"file":   src.Fingerprint.Name,
			"errors": len(result.Errors),
		})
		return nil, err
	}

	return s.run(ctx, src.Fingerprint.Name, parsed, progress)
}

// Import persists rows that the caller has already validated. It only
// enforces the single-run guard since there is no file to fingerprint.
func (s *ImportService) Import(ctx context.Context, source string, parsed *domain.ParsedCSV, progress ports.ProgressReporter) (*domain.ImportOutcome, error) {
	if err := s.begin(""); err != nil {
		return nil, err
	}
	defer s.finish("")
	return s.run(ctx, source, parsed, progress)
}

// InProgress reports whether an import run currently holds the guard.
func (s *ImportService) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress
}

func (s *ImportService) begin(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if _, found := s.recent.Get(key); found {
			return ports.ErrDuplicateSubmission
		}
	}
	if s.inProgress {
		return ports.ErrImportInProgress
	}
	s.inProgress = true
	if key != "" {
		s.recent.Set(key, struct{}{}, cache.NoExpiration) // Held until the run finishes
	}
	return nil
}

func (s *ImportService) finish(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inProgress = false
	if key == "" {
		return
	}
	if s.cfg.DuplicateWindow > 0 {
		s.recent.Set(key, struct{}{}, s.cfg.DuplicateWindow)
	} else {
		s.recent.Delete(key)
	}
}

func (s *ImportService) run(ctx context.Context, source string, parsed *domain.ParsedCSV, progress ports.ProgressReporter) (*domain.ImportOutcome, error) {
	userID := s.currentUser(ctx)
	outcome := &domain.ImportOutcome{
		Source:    source,
		Total:     len(parsed.Rows),
		Errors:    []string{},
		StartedAt: s.now(),
	}
	s.logger.Info(ctx, "Import started", map[string]interface{}{"source": source, "rows": outcome.Total, "userID": userID})

	var runErr error
	for i, row := range parsed.Rows {
		if err := s.wait(ctx); err != nil {
			runErr = fmt.Errorf("%w: import stopped after %d of %d rows: %v", ports.ErrContextCanceled, i, outcome.Total, err)
			break
		}

		rowNum := i + 2 // Header is line 1
		if err := s.importRow(ctx, row, userID); err != nil {
			outcome.FailureCount++
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			s.logger.Warn(ctx, "Row import failed", map[string]interface{}{"row": rowNum, "error": err.Error()})
		} else {
			outcome.SuccessCount++
		}

		if progress != nil {
			progress.ReportProgress(ctx, i+1, outcome.Total)
		}
	}
	outcome.Finalize(s.now())

	if outcome.SuccessCount > 0 {
		if _, err := s.book.Refresh(ctx, userID); err != nil {
			s.book.Invalidate(userID)
			s.logger.Warn(ctx, "Failed to refresh trade list after import", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.notifier != nil {
		if err := s.notifier.ImportCompleted(ctx, userID, outcome); err != nil {
			s.logger.Error(ctx, err, "Failed to publish import event", map[string]interface{}{"source": source})
		}
	}

	s.logger.Info(ctx, "Import finished", map[string]interface{}{
		"source":    source,
		"status":    string(outcome.Status),
		"succeeded": outcome.SuccessCount,
		"failed":    outcome.FailureCount,
	})
	return outcome, runErr
}

// wait checks for cancellation and applies the optional row pacing.
func (s *ImportService) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *ImportService) importRow(ctx context.Context, row domain.RawRow, userID string) error {
	trade, err := csvimport.MapRow(row, s.newID(), userID, s.now())
	if err != nil {
		return err
	}
	return s.store.UpsertTrade(ctx, trade)
}

func (s *ImportService) currentUser(ctx context.Context) string {
	if id, ok := s.session.CurrentUserID(ctx); ok && id != "" {
		return id
	}
	return domain.AnonymousUserID
}

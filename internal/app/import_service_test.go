package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradlyst/config"
	"tradlyst/internal/csvimport"
	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

const threeTrades = "symbol,direction,entry_date,entry_quantity,entry_price\n" +
	"AAPL,Long,15-01-2024,100,150.25\n" +
	"TSLA,Short,2024-01-16,50,245.30\n" +
	"MSFT,Long,17-01-2024,200,380.50\n"

type fixture struct {
	svc      *ImportService
	store    *mockStore
	logger   *mockLogger
	notifier *mockNotifier
	session  *mockSession
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{DuplicateWindow: 5 * time.Second, TradeCacheTTL: time.Minute}
	}
	f := &fixture{
		store:    &mockStore{failFor: map[string]bool{}},
		logger:   &mockLogger{},
		notifier: &mockNotifier{},
		session:  &mockSession{userID: "user-42"},
	}
	book, err := NewTradeBook(f.store, f.logger, time.Minute)
	require.NoError(t, err)
	f.svc, err = NewImportService(cfg, f.logger, f.store, f.session, book, f.notifier)
	require.NoError(t, err)
	return f
}

func source(name, text string, modTime time.Time) *csvimport.Source {
	return &csvimport.Source{
		Fingerprint: domain.Fingerprint{Name: name, Size: int64(len(text)), ModTime: modTime},
		Text:        text,
	}
}

var fixedModTime = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

func TestNewImportService_Validation(t *testing.T) {
	store := &mockStore{}
	logger := &mockLogger{}
	book, err := NewTradeBook(store, logger, time.Minute)
	require.NoError(t, err)
	cfg := &config.Config{}

	_, err = NewImportService(nil, logger, store, &mockSession{}, book, nil)
	assert.Error(t, err)
	_, err = NewImportService(cfg, logger, nil, &mockSession{}, book, nil)
	assert.Error(t, err)
	_, err = NewImportService(cfg, logger, store, nil, book, nil)
	assert.Error(t, err)
	_, err = NewImportService(&config.Config{RowDelay: -time.Second}, logger, store, &mockSession{}, book, nil)
	assert.Error(t, err)

	svc, err := NewImportService(cfg, logger, store, &mockSession{}, book, nil)
	require.NoError(t, err, "notifier is optional")
	assert.Nil(t, svc.limiter)
}

func TestImportSource_EndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	progress := &recordingProgress{}
	text := "symbol,direction,entry_date,entry_quantity,entry_price\nAAPL,Long,15-01-2024,100,150.25\n"

	outcome, err := f.svc.ImportSource(context.Background(), source("single.csv", text, fixedModTime), progress)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Total)
	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.FailureCount)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, domain.StatusAllSucceeded, outcome.Status)
	assert.Equal(t, "single.csv", outcome.Source)

	trades := f.store.upserted()
	require.Len(t, trades, 1)
	trade := trades[0]
	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, "user-42", trade.UserID)
	assert.Equal(t, "AAPL", trade.Asset)
	assert.Equal(t, domain.Long, trade.Direction)
	assert.Equal(t, 100.0, trade.Quantity)
	assert.Equal(t, 150.25, trade.EntryPrice)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), trade.EntryDate)

	assert.Equal(t, []progressStep{{1, 1}}, progress.steps)
	assert.Equal(t, 1, f.store.gets(), "trade list refreshed after a successful import")
	require.Len(t, f.notifier.outcomes, 1)
	assert.Equal(t, "user-42", f.notifier.userIDs[0])
	assert.False(t, f.svc.InProgress())
}

func TestImportSource_PartialFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.store.failFor["TSLA"] = true
	progress := &recordingProgress{}

	outcome, err := f.svc.ImportSource(context.Background(), source("three.csv", threeTrades, fixedModTime), progress)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.FailureCount)
	assert.Equal(t, []string{"Row 3: upsert rejected"}, outcome.Errors)
	assert.Equal(t, domain.StatusPartialFailure, outcome.Status)

	trades := f.store.upserted()
	require.Len(t, trades, 2)
	assert.Equal(t, "AAPL", trades[0].Asset)
	assert.Equal(t, "MSFT", trades[1].Asset)

	assert.Equal(t, []progressStep{{1, 3}, {2, 3}, {3, 3}}, progress.steps, "progress reported for failed rows too")
	assert.Len(t, f.logger.warnMsgs, 1)
}

func TestImportSource_AllFailed(t *testing.T) {
	f := newFixture(t, nil)
	f.store.failAll = true

	outcome, err := f.svc.ImportSource(context.Background(), source("three.csv", threeTrades, fixedModTime), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.SuccessCount)
	assert.Equal(t, 3, outcome.FailureCount)
	assert.Equal(t, domain.StatusAllFailed, outcome.Status)
	assert.Equal(t, "Row 2: upsert rejected", outcome.Errors[0])
	assert.Equal(t, 0, f.store.gets(), "no refresh without a success")
}

func TestImport_TwiceCreatesDistinctRecords(t *testing.T) {
	f := newFixture(t, nil)
	parsed, err := csvimport.Parse(threeTrades)
	require.NoError(t, err)

	_, err = f.svc.Import(context.Background(), "batch", parsed, nil)
	require.NoError(t, err)
	_, err = f.svc.Import(context.Background(), "batch", parsed, nil)
	require.NoError(t, err)

	trades := f.store.upserted()
	require.Len(t, trades, 6)
	ids := map[string]bool{}
	for _, tr := range trades {
		ids[tr.ID] = true
	}
	assert.Len(t, ids, 6)
}

func TestImportSource_DuplicateWithinWindow(t *testing.T) {
	f := newFixture(t, &config.Config{DuplicateWindow: 50 * time.Millisecond})
	ctx := context.Background()
	src := source("three.csv", threeTrades, fixedModTime)

	_, err := f.svc.ImportSource(ctx, src, nil)
	require.NoError(t, err)
	require.Len(t, f.store.upserted(), 3)

	_, err = f.svc.ImportSource(ctx, src, nil)
	assert.ErrorIs(t, err, ports.ErrDuplicateSubmission)
	assert.ErrorIs(t, err, ports.ErrConcurrencyRejected)
	assert.Len(t, f.store.upserted(), 3, "rejected run makes no store calls")

	// A different modification time is a different file.
	_, err = f.svc.ImportSource(ctx, source("three.csv", threeTrades, fixedModTime.Add(time.Second)), nil)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	_, err = f.svc.ImportSource(ctx, src, nil)
	require.NoError(t, err, "same file accepted once the window elapsed")
	assert.Len(t, f.store.upserted(), 9)
}

func TestImportSource_ZeroWindowAllowsImmediateResubmit(t *testing.T) {
	f := newFixture(t, &config.Config{})
	src := source("three.csv", threeTrades, fixedModTime)

	_, err := f.svc.ImportSource(context.Background(), src, nil)
	require.NoError(t, err)
	_, err = f.svc.ImportSource(context.Background(), src, nil)
	require.NoError(t, err)
}

func TestImportSource_RejectsWhileInProgress(t *testing.T) {
	f := newFixture(t, nil)
	f.store.entered = make(chan struct{})
	f.store.release = make(chan struct{})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.svc.ImportSource(ctx, source("first.csv", threeTrades, fixedModTime), nil)
	}()

	<-f.store.entered // first run is inside the store call for row 1
	assert.True(t, f.svc.InProgress())

	_, err := f.svc.ImportSource(ctx, source("second.csv", threeTrades, fixedModTime), nil)
	assert.ErrorIs(t, err, ports.ErrImportInProgress)
	parsed, perr := csvimport.Parse(threeTrades)
	require.NoError(t, perr)
	_, err = f.svc.Import(ctx, "second", parsed, nil)
	assert.ErrorIs(t, err, ports.ErrConcurrencyRejected)

	close(f.store.release)
	// Drain the remaining rows of the first run.
	go func() {
		for range f.store.entered {
		}
	}()
	wg.Wait()
	close(f.store.entered)

	require.NoError(t, firstErr)
	assert.Len(t, f.store.upserted(), 3)
	assert.False(t, f.svc.InProgress())
}

func TestImportSource_ValidationBlocksImport(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "row error",
			text:    "symbol,direction,entry_date,entry_quantity,entry_price\nAAPL,Long,15-01-2024,100,150.25\nTSLA,long,16-01-2024,50,245.30\n",
			wantErr: ports.ErrValidationFailed,
		},
		{
			name:    "missing columns",
			text:    "symbol,direction,entry_date\nAAPL,Long,15-01-2024\n",
			wantErr: ports.ErrHeaderInvalid,
		},
		{
			name:    "header only",
			text:    "symbol,direction,entry_date,entry_quantity,entry_price\n",
			wantErr: ports.ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			outcome, err := f.svc.ImportSource(context.Background(), source("bad.csv", tt.text, fixedModTime), nil)
			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.upserted())
			assert.Empty(t, f.notifier.outcomes)
			assert.False(t, f.svc.InProgress(), "guard released after a rejected file")
		})
	}
}

func TestImportSource_ValidationReportListsEveryRow(t *testing.T) {
	f := newFixture(t, nil)
	text := "symbol,direction,entry_date,entry_quantity,entry_price\n" +
		"AAPL,long,15-01-2024,100,150.25\n" +
		",Short,16-01-2024,50,abc\n"

	_, err := f.svc.ImportSource(context.Background(), source("bad.csv", text, fixedModTime), nil)
	var failure *csvimport.ValidationFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, []string{
		"Row 2: direction must be 'Long' or 'Short'",
		"Row 3: symbol is required",
		"Row 3: entry_price must be a valid number",
	}, failure.Result.Messages())
}

func TestImport_AnonymousOwner(t *testing.T) {
	f := newFixture(t, nil)
	f.session.userID = ""
	parsed, err := csvimport.Parse(threeTrades)
	require.NoError(t, err)

	_, err = f.svc.Import(context.Background(), "batch", parsed, nil)
	require.NoError(t, err)

	for _, tr := range f.store.upserted() {
		assert.Equal(t, domain.AnonymousUserID, tr.UserID)
	}
	assert.Equal(t, domain.AnonymousUserID, f.notifier.userIDs[0])
}

func TestImport_Canceled(t *testing.T) {
	f := newFixture(t, nil)
	parsed, err := csvimport.Parse(threeTrades)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := f.svc.Import(ctx, "batch", parsed, nil)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
	require.NotNil(t, outcome)
	assert.Equal(t, 0, outcome.SuccessCount)
	assert.Equal(t, 3, outcome.Total)
	assert.Equal(t, domain.StatusCanceled, outcome.Status)
	assert.Empty(t, f.store.upserted())
	assert.False(t, f.svc.InProgress())
}

// cancelAfter cancels the import context once n rows have been reported.
type cancelAfter struct {
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) ReportProgress(ctx context.Context, done, total int) {
	if done == c.n {
		c.cancel()
	}
}

func TestImport_CanceledMidRun(t *testing.T) {
	f := newFixture(t, nil)
	parsed, err := csvimport.Parse(threeTrades)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcome, err := f.svc.Import(ctx, "batch", parsed, &cancelAfter{n: 1, cancel: cancel})
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
	require.NotNil(t, outcome)
	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.FailureCount)
	assert.Equal(t, 3, outcome.Total)
	assert.Equal(t, domain.StatusCanceled, outcome.Status)
	assert.Len(t, f.store.upserted(), 1)

	require.Len(t, f.notifier.outcomes, 1)
	assert.Equal(t, domain.StatusCanceled, f.notifier.outcomes[0].Status)
}

func TestImport_RowDelayPacesRows(t *testing.T) {
	f := newFixture(t, &config.Config{RowDelay: 20 * time.Millisecond})
	require.NotNil(t, f.svc.limiter)
	parsed, err := csvimport.Parse(threeTrades)
	require.NoError(t, err)

	start := time.Now()
	outcome, err := f.svc.Import(context.Background(), "batch", parsed, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.SuccessCount)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestImport_NotifierFailureDoesNotFailImport(t *testing.T) {
	f := newFixture(t, nil)
	f.notifier.err = errors.New("broker down")
	parsed, err := csvimport.Parse(threeTrades)
	require.NoError(t, err)

	outcome, err := f.svc.Import(context.Background(), "batch", parsed, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAllSucceeded, outcome.Status)
	assert.Contains(t, f.logger.errorMsgs, "Failed to publish import event")
}

func TestImportFile(t *testing.T) {
	f := newFixture(t, nil)
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(threeTrades), 0o644))

	outcome, err := f.svc.ImportFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "trades.csv", outcome.Source)
	assert.Equal(t, 3, outcome.SuccessCount)

	_, err = f.svc.ImportFile(context.Background(), path, nil)
	assert.ErrorIs(t, err, ports.ErrDuplicateSubmission)

	_, err = f.svc.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.ErrorIs(t, err, ports.ErrMalformedInput)
}

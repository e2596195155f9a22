package app

import (
	"context"
	"errors"
	"sync"

	"tradlyst/internal/domain"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

var errUpsertRejected = errors.New("upsert rejected")

type mockStore struct {
	mu       sync.Mutex
	trades   []*domain.Trade
	failFor  map[string]bool // Assets whose upsert fails
	failAll  bool
	getErr   error
	getCalls int

	// When set, UpsertTrade signals entered and blocks until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (m *mockStore) UpsertTrade(ctx context.Context, trade *domain.Trade) error {
	if m.release != nil {
		m.entered <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll || m.failFor[trade.Asset] {
		return errUpsertRejected
	}
	m.trades = append(m.trades, trade)
	return nil
}

func (m *mockStore) GetTrades(ctx context.Context, userID string) ([]*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*domain.Trade
	for _, t := range m.trades {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) upserted() []*domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Trade(nil), m.trades...)
}

func (m *mockStore) gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

type mockSession struct {
	userID string
}

func (m *mockSession) CurrentUserID(ctx context.Context) (string, bool) {
	return m.userID, m.userID != ""
}

type mockNotifier struct {
	mu       sync.Mutex
	err      error
	outcomes []*domain.ImportOutcome
	userIDs  []string
}

func (m *mockNotifier) ImportCompleted(ctx context.Context, userID string, outcome *domain.ImportOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userIDs = append(m.userIDs, userID)
	m.outcomes = append(m.outcomes, outcome)
	return m.err
}

type progressStep struct{ done, total int }

type recordingProgress struct {
	steps []progressStep
}

func (r *recordingProgress) ReportProgress(ctx context.Context, done, total int) {
	r.steps = append(r.steps, progressStep{done, total})
}

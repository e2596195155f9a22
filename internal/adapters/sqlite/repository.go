package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3" // SQLite driver

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

const dateLayout = "2006-01-02"

// Repository implements the ports.TradeStore interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/tradlyst.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Single writer keeps SQLite free of SQLITE_BUSY under WAL
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		asset TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('Long', 'Short')),
		segment TEXT NOT NULL,
		trading_style TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		entry_time TEXT NOT NULL DEFAULT '',
		entry_price REAL NOT NULL,
		quantity REAL NOT NULL,
		stop_loss REAL DEFAULT NULL,
		target REAL DEFAULT NULL,
		exit_date TEXT DEFAULT NULL,
		exit_time TEXT NOT NULL DEFAULT '',
		exit_price REAL DEFAULT NULL,
		exit_quantity REAL DEFAULT NULL,
		brokerage REAL NOT NULL DEFAULT 0,
		other_fees REAL NOT NULL DEFAULT 0,
		strategy TEXT NOT NULL,
		outcome_summary TEXT NOT NULL DEFAULT '',
		reasons TEXT NOT NULL DEFAULT '',
		emotional_state TEXT NOT NULL DEFAULT '',
		mistakes TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_user_entry_date ON trades (user_id, entry_date);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- TradeStore Implementation ---

// UpsertTrade inserts the trade or replaces every column of the row with the same ID.
func (r *Repository) UpsertTrade(ctx context.Context, trade *domain.Trade) error {
	const query = `
	INSERT INTO trades (id, user_id, asset, direction, segment, trading_style,
	                    entry_date, entry_time, entry_price, quantity, stop_loss, target,
	                    exit_date, exit_time, exit_price, exit_quantity, brokerage, other_fees,
	                    strategy, outcome_summary, reasons, emotional_state, mistakes, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id, asset = excluded.asset, direction = excluded.direction,
		segment = excluded.segment, trading_style = excluded.trading_style,
		entry_date = excluded.entry_date, entry_time = excluded.entry_time,
		entry_price = excluded.entry_price, quantity = excluded.quantity,
		stop_loss = excluded.stop_loss, target = excluded.target,
		exit_date = excluded.exit_date, exit_time = excluded.exit_time,
		exit_price = excluded.exit_price, exit_quantity = excluded.exit_quantity,
		brokerage = excluded.brokerage, other_fees = excluded.other_fees,
		strategy = excluded.strategy, outcome_summary = excluded.outcome_summary,
		reasons = excluded.reasons, emotional_state = excluded.emotional_state,
		mistakes = excluded.mistakes`

	mistakes, err := encodeMistakes(trade.Mistakes)
	if err != nil {
		return fmt.Errorf("failed to encode mistakes for trade %s: %w", trade.ID, err)
	}

	var exitDate sql.NullString
	if trade.ExitDate != nil {
		exitDate = sql.NullString{String: trade.ExitDate.Format(dateLayout), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		trade.ID, trade.UserID, trade.Asset, string(trade.Direction), trade.Segment, trade.TradingStyle,
		trade.EntryDate.Format(dateLayout), trade.EntryTime, trade.EntryPrice, trade.Quantity,
		nullFloat(trade.StopLoss), nullFloat(trade.Target),
		exitDate, trade.ExitTime, nullFloat(trade.ExitPrice), nullFloat(trade.ExitQuantity),
		trade.Brokerage, trade.OtherFees,
		trade.Strategy, trade.OutcomeSummary, trade.Reasons, trade.EmotionalState, mistakes, trade.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("trade %s (%s): %w: %v", trade.ID, trade.Asset, ports.ErrConstraintViolation, err)
		}
		return fmt.Errorf("failed to upsert trade %s (%s): %w: %v", trade.ID, trade.Asset, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Trade upserted", map[string]interface{}{"tradeID": trade.ID, "asset": trade.Asset})
	return nil
}

// GetTrades retrieves all trades owned by userID, ordered by entry date descending.
func (r *Repository) GetTrades(ctx context.Context, userID string) ([]*domain.Trade, error) {
	const query = `
	SELECT id, user_id, asset, direction, segment, trading_style,
	       entry_date, entry_time, entry_price, quantity, stop_loss, target,
	       exit_date, exit_time, exit_price, exit_quantity, brokerage, other_fees,
	       strategy, outcome_summary, reasons, emotional_state, mistakes, created_at
	FROM trades
	WHERE user_id = ?
	ORDER BY entry_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for user %s: %w: %v", userID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during GetTrades: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var (
		direction, entryDate, mistakes            string
		stopLoss, target, exitPrice, exitQuantity sql.NullFloat64
		exitDate                                  sql.NullString
	)
	err := s.Scan(
		&t.ID, &t.UserID, &t.Asset, &direction, &t.Segment, &t.TradingStyle,
		&entryDate, &t.EntryTime, &t.EntryPrice, &t.Quantity, &stopLoss, &target,
		&exitDate, &t.ExitTime, &exitPrice, &exitQuantity, &t.Brokerage, &t.OtherFees,
		&t.Strategy, &t.OutcomeSummary, &t.Reasons, &t.EmotionalState, &mistakes, &t.CreatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}

	t.Direction = domain.Direction(direction)
	if t.EntryDate, err = time.Parse(dateLayout, entryDate); err != nil {
		return nil, fmt.Errorf("invalid entry_date %q for trade %s: %w", entryDate, t.ID, err)
	}
	if exitDate.Valid {
		d, err := time.Parse(dateLayout, exitDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid exit_date %q for trade %s: %w", exitDate.String, t.ID, err)
		}
		t.ExitDate = &d
	}
	t.StopLoss = floatPtr(stopLoss)
	t.Target = floatPtr(target)
	t.ExitPrice = floatPtr(exitPrice)
	t.ExitQuantity = floatPtr(exitQuantity)
	if err := json.Unmarshal([]byte(mistakes), &t.Mistakes); err != nil {
		return nil, fmt.Errorf("invalid mistakes for trade %s: %w", t.ID, err)
	}
	return t, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func encodeMistakes(m []string) (string, error) {
	if m == nil {
		m = []string{}
	}
	b, err := json.Marshal(m)
	return string(b), err
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// Repository implements the ports.TradeStore interface on Postgres (e.g., Supabase).
type Repository struct {
	pool   *pgxpool.Pool
	logger ports.Logger
}

// Config holds configuration for the Postgres repository.
type Config struct {
	DatabaseURL string
	Pool        PoolConfig
	Logger      ports.Logger
}

// NewRepository connects, pings and makes sure the trades table exists.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Postgres repository")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: database URL is required", ports.ErrConfigurationError)
	}

	pool, err := NewPool(ctx, cfg.DatabaseURL, cfg.Pool)
	if err != nil {
		err = fmt.Errorf("%w: failed to create pool: %v", ports.ErrDBConnection, err)
		cfg.Logger.Error(ctx, err, "Postgres repository initialization failed")
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		err = fmt.Errorf("%w: failed to ping database: %v", ports.ErrDBConnection, err)
		cfg.Logger.Error(ctx, err, "Postgres repository initialization failed")
		return nil, err
	}

	repo := &Repository{pool: pool, logger: cfg.Logger}
	if err := repo.migrate(ctx); err != nil {
		pool.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(ctx, err, "Postgres repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(ctx, "Postgres connection pool established", map[string]interface{}{"maxConns": cfg.Pool.normalize().MaxConns})
	return repo, nil
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`create table if not exists trades (
			id text primary key,
			user_id text not null,
			asset text not null,
			direction text not null check (direction in ('Long', 'Short')),
			segment text not null,
			trading_style text not null,
			entry_date date not null,
			entry_time text not null default '',
			entry_price double precision not null,
			quantity double precision not null,
			stop_loss double precision null,
			target double precision null,
			exit_date date null,
			exit_time text not null default '',
			exit_price double precision null,
			exit_quantity double precision null,
			brokerage double precision not null default 0,
			other_fees double precision not null default 0,
			strategy text not null,
			outcome_summary text not null default '',
			reasons text not null default '',
			emotional_state text not null default '',
			mistakes text[] not null default '{}',
			created_at timestamptz not null default now()
		);`,
		`create index if not exists idx_trades_user_entry_date on trades (user_id, entry_date desc);`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every pooled connection.
func (r *Repository) Close() {
	r.logger.Info(context.Background(), "Closing Postgres connection pool")
	r.pool.Close()
}

// UpsertTrade inserts the trade or replaces the row with the same ID.
func (r *Repository) UpsertTrade(ctx context.Context, trade *domain.Trade) error {
	mistakes := trade.Mistakes
	if mistakes == nil {
		mistakes = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		insert into trades(
			id, user_id, asset, direction, segment, trading_style,
			entry_date, entry_time, entry_price, quantity, stop_loss, target,
			exit_date, exit_time, exit_price, exit_quantity, brokerage, other_fees,
			strategy, outcome_summary, reasons, emotional_state, mistakes, created_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		on conflict (id) do update set
			user_id=excluded.user_id,
			asset=excluded.asset,
			direction=excluded.direction,
			segment=excluded.segment,
			trading_style=excluded.trading_style,
			entry_date=excluded.entry_date,
			entry_time=excluded.entry_time,
			entry_price=excluded.entry_price,
			quantity=excluded.quantity,
			stop_loss=excluded.stop_loss,
			target=excluded.target,
			exit_date=excluded.exit_date,
			exit_time=excluded.exit_time,
			exit_price=excluded.exit_price,
			exit_quantity=excluded.exit_quantity,
			brokerage=excluded.brokerage,
			other_fees=excluded.other_fees,
			strategy=excluded.strategy,
			outcome_summary=excluded.outcome_summary,
			reasons=excluded.reasons,
			emotional_state=excluded.emotional_state,
			mistakes=excluded.mistakes
	`,
		trade.ID,
		trade.UserID,
		trade.Asset,
		string(trade.Direction),
		trade.Segment,
		trade.TradingStyle,
		trade.EntryDate,
		trade.EntryTime,
		trade.EntryPrice,
		trade.Quantity,
		trade.StopLoss,
		trade.Target,
		trade.ExitDate,
		trade.ExitTime,
		trade.ExitPrice,
		trade.ExitQuantity,
		trade.Brokerage,
		trade.OtherFees,
		trade.Strategy,
		trade.OutcomeSummary,
		trade.Reasons,
		trade.EmotionalState,
		mistakes,
		trade.CreatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("trade %s (%s): %w: %v", trade.ID, trade.Asset, ports.ErrConstraintViolation, err)
		}
		return fmt.Errorf("failed to upsert trade %s (%s): %w: %v", trade.ID, trade.Asset, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Trade upserted", map[string]interface{}{"tradeID": trade.ID, "asset": trade.Asset})
	return nil
}

// GetTrades retrieves all trades owned by userID, ordered by entry date descending.
func (r *Repository) GetTrades(ctx context.Context, userID string) ([]*domain.Trade, error) {
	rows, err := r.pool.Query(ctx, `
		select id, user_id, asset, direction, segment, trading_style,
			entry_date, entry_time, entry_price, quantity, stop_loss, target,
			exit_date, exit_time, exit_price, exit_quantity, brokerage, other_fees,
			strategy, outcome_summary, reasons, emotional_state, mistakes, created_at
		from trades
		where user_id = $1
		order by entry_date desc, created_at desc
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for user %s: %w: %v", userID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during GetTrades: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	t := &domain.Trade{}
	var direction string
	err := row.Scan(
		&t.ID, &t.UserID, &t.Asset, &direction, &t.Segment, &t.TradingStyle,
		&t.EntryDate, &t.EntryTime, &t.EntryPrice, &t.Quantity, &t.StopLoss, &t.Target,
		&t.ExitDate, &t.ExitTime, &t.ExitPrice, &t.ExitQuantity, &t.Brokerage, &t.OtherFees,
		&t.Strategy, &t.OutcomeSummary, &t.Reasons, &t.EmotionalState, &t.Mistakes, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Direction = domain.Direction(direction)
	return t, nil
}

// isConstraintViolation reports SQLSTATE class 23 (integrity constraint violation).
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}

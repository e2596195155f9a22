package ports

import (
	"context"

	"tradlyst/internal/domain"
)

// TradeStore defines the interface for persisting and reloading journaled trades.
type TradeStore interface {
	// UpsertTrade creates the trade, or replaces the stored trade with the same ID.
	UpsertTrade(ctx context.Context, trade *domain.Trade) error
	// GetTrades retrieves every trade owned by userID, ordered by entry date descending.
	GetTrades(ctx context.Context, userID string) ([]*domain.Trade, error)
}

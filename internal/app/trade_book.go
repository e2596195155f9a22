package app

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// TradeBook serves each user's journaled trades from a short-lived cache
// in front of the TradeStore.
type TradeBook struct {
	store  ports.TradeStore
	logger ports.Logger
	cache  *cache.Cache
}

// NewTradeBook creates a TradeBook whose entries live for ttl.
func NewTradeBook(store ports.TradeStore, logger ports.Logger, ttl time.Duration) (*TradeBook, error) {
	if store == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for TradeBook")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("trade cache TTL must be positive")
	}
	return &TradeBook{
		store:  store,
		logger: logger,
		cache:  cache.New(ttl, 2*ttl),
	}, nil
}

func tradesKey(userID string) string {
	return fmt.Sprintf("trades_user_%s", userID)
}

// Trades returns the user's trades, newest entry first.
func (b *TradeBook) Trades(ctx context.Context, userID string) ([]*domain.Trade, error) {
	if cached, found := b.cache.Get(tradesKey(userID)); found {
		b.logger.Debug(ctx, "Trade cache hit", map[string]interface{}{"userID": userID})
		return cached.([]*domain.Trade), nil
	}
	return b.Refresh(ctx, userID)
}

// Refresh reloads the user's trades from the store and replaces the cached list.
func (b *TradeBook) Refresh(ctx context.Context, userID string) ([]*domain.Trade, error) {
	trades, err := b.store.GetTrades(ctx, userID)
	if err != nil {
		b.cache.Delete(tradesKey(userID))
		return nil, fmt.Errorf("failed to load trades for user %s: %w", userID, err)
	}
	b.cache.SetDefault(tradesKey(userID), trades)
	b.logger.Debug(ctx, "Trade cache refreshed", map[string]interface{}{"userID": userID, "count": len(trades)})
	return trades, nil
}

// Invalidate drops the cached list so the next read goes to the store.
func (b *TradeBook) Invalidate(userID string) {
	b.cache.Delete(tradesKey(userID))
}

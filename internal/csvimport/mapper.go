package csvimport

import (
	"fmt"
	"time"

	"tradlyst/internal/domain"
)

// MapRow converts a validated RawRow into a Trade. This is the only place
// where untyped CSV strings become typed trade fields.
func MapRow(row domain.RawRow, id, userID string, now time.Time) (*domain.Trade, error) {
	entryDate, err := ParseDate(row["entry_date"])
	if err != nil {
		return nil, fmt.Errorf("entry_date: %w", err)
	}

	direction := domain.Direction(value(row, "direction"))
	if direction == "" {
		direction = domain.Long
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("unsupported direction %q", direction)
	}

	trade := &domain.Trade{
		ID:             id,
		UserID:         userID,
		Asset:          value(row, "symbol"),
		Direction:      direction,
		Segment:        domain.DefaultSegment,
		TradingStyle:   orDefault(value(row, "trading_style"), domain.DefaultTradingStyle),
		EntryDate:      entryDate,
		EntryTime:      value(row, "entry_time"),
		EntryPrice:     numberOrZero(row, "entry_price"),
		Quantity:       numberOrZero(row, "entry_quantity"),
		StopLoss:       optionalNumber(row, "stop_loss"),
		Target:         optionalNumber(row, "target_price"),
		ExitTime:       value(row, "exit_time"),
		ExitPrice:      optionalNumber(row, "exit_price"),
		ExitQuantity:   optionalNumber(row, "exit_quantity"),
		Brokerage:      numberOrZero(row, "brokerage"),
		OtherFees:      numberOrZero(row, "charges"),
		Strategy:       orDefault(value(row, "strategy_tag"), domain.DefaultStrategy),
		OutcomeSummary: value(row, "outcome_summary"),
		Reasons:        value(row, "notes"),
		EmotionalState: value(row, "emotional_state"),
		Mistakes:       []string{},
		CreatedAt:      now,
	}

	if v := value(row, "exit_date"); v != "" {
		exitDate, err := ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("exit_date: %w", err)
		}
		trade.ExitDate = &exitDate
	}

	return trade, nil
}

func numberOrZero(row domain.RawRow, field string) float64 {
	f, err := ParseNumber(value(row, field))
	if err != nil {
		return 0
	}
	return f
}

func optionalNumber(row domain.RawRow, field string) *float64 {
	v := value(row, field)
	if v == "" {
		return nil
	}
	f, err := ParseNumber(v)
	if err != nil {
		return nil
	}
	return &f
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

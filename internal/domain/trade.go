package domain

import "time"

// Trade represents one journaled trade as persisted in the trade store.
type Trade struct {
	ID           string    // Generated per record, never taken from input
	UserID       string    // Owner reference ("anonymous" without a session)
	Asset        string    // Instrument symbol (e.g., "AAPL")
	Direction    Direction // Long or Short
	Segment      string    // Market segment, "Equity" for CSV imports
	TradingStyle string    // e.g., "Scalping", "Swing Trading"

	EntryDate  time.Time // Calendar date of entry (UTC midnight)
	EntryTime  string    // HH:MM or HH:MM:SS, empty when unknown
	EntryPrice float64
	Quantity   float64

	StopLoss *float64 // nil when not set
	Target   *float64 // nil when not set

	ExitDate     *time.Time // nil while the position is open
	ExitTime     string
	ExitPrice    *float64
	ExitQuantity *float64 // nil means the full quantity was exited

	Brokerage float64
	OtherFees float64

	Strategy       string
	OutcomeSummary string
	Reasons        string // Free-form notes
	EmotionalState string
	Mistakes       []string

	CreatedAt time.Time
}

// IsClosed reports whether the trade has both an exit price and an exit date.
func (t *Trade) IsClosed() bool {
	return t.ExitPrice != nil && t.ExitDate != nil
}

// ExitedQuantity returns the quantity the exit applies to.
func (t *Trade) ExitedQuantity() float64 {
	if t.ExitQuantity != nil {
		return *t.ExitQuantity
	}
	return t.Quantity
}

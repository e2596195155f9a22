package domain

// Direction represents the side of a journaled trade (Long or Short).
type Direction string

const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

// IsValid reports whether d is one of the supported directions.
// The comparison is case-sensitive.
func (d Direction) IsValid() bool {
	return d == Long || d == Short
}

// Defaults applied when an imported row leaves a descriptive field empty.
const (
	DefaultSegment      = "Equity" // The CSV format has no segment column
	DefaultTradingStyle = "Scalping"
	DefaultStrategy     = "Price Action"
	AnonymousUserID     = "anonymous"
)

// ImportStatus summarizes how an import run ended.
type ImportStatus string

const (
	StatusAllSucceeded   ImportStatus = "all-succeeded"
	StatusPartialFailure ImportStatus = "partial-failure"
	StatusAllFailed      ImportStatus = "all-failed"
	StatusCanceled       ImportStatus = "canceled" // Stopped before every row was attempted
)

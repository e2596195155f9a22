package domain

import (
	"fmt"
	"time"
)

// RawRow is a header-keyed, string-valued view of one CSV data line.
type RawRow map[string]string

// ParsedCSV holds the normalized header and the data rows of an import file.
type ParsedCSV struct {
	Headers []string
	Rows    []RawRow
}

// ValidationError describes one failed check. Row is 1-based and counts the
// header line, so the first data row is row 2. Header errors use Row 0.
type ValidationError struct {
	Row     int
	Field   string
	Message string
}

func (e ValidationError) String() string {
	if e.Row == 0 {
		return e.Message
	}
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// ValidationResult is the outcome of validating a ParsedCSV.
type ValidationResult struct {
	IsValid bool
	Errors  []ValidationError
}

// Messages returns the human-readable error list in report order.
func (r *ValidationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return msgs
}

// Fingerprint identifies a submitted file by name, size and modification time.
type Fingerprint struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Key renders the fingerprint as a stable cache key.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("%s_%d_%d", f.Name, f.Size, f.ModTime.UnixMilli())
}

// ImportOutcome aggregates the result of one import run.
type ImportOutcome struct {
	Source       string
	Total        int
	SuccessCount int
	FailureCount int
	Errors       []string // Row-tagged failure messages, in row order
	Status       ImportStatus
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Finalize derives Status from the counters. A run that attempted fewer
// rows than Total is canceled whatever the other counters say.
func (o *ImportOutcome) Finalize(finishedAt time.Time) {
	o.FinishedAt = finishedAt
	switch {
	case o.Attempted() < o.Total:
		o.Status = StatusCanceled
	case o.FailureCount == 0:
		o.Status = StatusAllSucceeded
	case o.SuccessCount == 0:
		o.Status = StatusAllFailed
	default:
		o.Status = StatusPartialFailure
	}
}

// Attempted is the number of rows the run got to, stored or not.
func (o *ImportOutcome) Attempted() int {
	return o.SuccessCount + o.FailureCount
}

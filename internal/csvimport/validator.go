package csvimport

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// RequiredFields are the columns every import file must carry and every row must fill.
var RequiredFields = []string{"symbol", "direction", "entry_date", "entry_quantity", "entry_price"}

var (
	timeFields    = []string{"entry_time", "exit_time"}
	numericFields = []string{
		"entry_quantity", "entry_price", "exit_quantity", "exit_price",
		"stop_loss", "target_price", "brokerage", "charges",
	}
	dateFields = []string{"entry_date", "exit_date"}
)

// ValidationFailure is returned when a file fails validation. It wraps
// ports.ErrHeaderInvalid or ports.ErrValidationFailed.
type ValidationFailure struct {
	Result *domain.ValidationResult
	kind   error
}

func (f *ValidationFailure) Error() string {
	msgs := f.Result.Messages()
	return fmt.Sprintf("%v: %s", f.kind, strings.Join(msgs, "; "))
}

func (f *ValidationFailure) Unwrap() error { return f.kind }

// Validate checks header completeness and then every row. Header problems stop
// validation immediately; row checks all run so one report lists every defect.
func Validate(parsed *domain.ParsedCSV) *domain.ValidationResult {
	result := &domain.ValidationResult{}

	present := make(map[string]bool, len(parsed.Headers))
	for _, h := range parsed.Headers {
		present[h] = true
	}
	var missing []string
	for _, f := range RequiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors, domain.ValidationError{
			Message: "Missing required columns: " + strings.Join(missing, ", "),
		})
		return result
	}

	for i, row := range parsed.Rows {
		result.Errors = append(result.Errors, validateRow(i+2, row)...)
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// Check wraps a failed ValidationResult into a ValidationFailure, or returns nil.
func Check(result *domain.ValidationResult) error {
	if result.IsValid {
		return nil
	}
	kind := ports.ErrValidationFailed
	if len(result.Errors) == 1 && result.Errors[0].Row == 0 {
		kind = ports.ErrHeaderInvalid
	}
	return &ValidationFailure{Result: result, kind: kind}
}

func validateRow(rowNum int, row domain.RawRow) []domain.ValidationError {
	var errs []domain.ValidationError
	fail := func(field, format string, args ...interface{}) {
		errs = append(errs, domain.ValidationError{Row: rowNum, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for _, f := range RequiredFields {
		if value(row, f) == "" {
			fail(f, "%s is required", f)
		}
	}

	for _, f := range timeFields {
		if v := value(row, f); v != "" && !IsValidTime(v) {
			fail(f, "%s must be in HH:MM or HH:MM:SS format", f)
		}
	}

	if d := value(row, "direction"); d != "" && !domain.Direction(d).IsValid() {
		fail("direction", "direction must be 'Long' or 'Short'")
	}

	for _, f := range numericFields {
		if v := value(row, f); v != "" {
			if _, err := ParseNumber(v); err != nil {
				fail(f, "%s must be a valid number", f)
			}
		}
	}

	for _, f := range dateFields {
		if v := value(row, f); v != "" {
			if _, err := ParseDate(v); err != nil {
				fail(f, "%s must be a valid date (DD-MM-YYYY or YYYY-MM-DD format)", f)
			}
		}
	}

	return errs
}

// ParseNumber parses the whole string as a finite float. Trailing garbage,
// NaN and infinities are rejected.
func ParseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return f, nil
}

func value(row domain.RawRow, field string) string {
	return strings.TrimSpace(row[field])
}

package csvimport

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	dayFirstDash  = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	yearFirstDash = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dayFirstSlash = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

	// timePattern accepts HH:MM or HH:MM:SS with an optional leading zero on the hour.
	timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)
)

// fallbackLayouts are tried, in order, when none of the journal formats match.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006/1/2",
	"1/2/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006",
}

var errEmptyDate = errors.New("empty date")

// ParseDate parses an import date and returns the calendar day at UTC midnight.
// DD-MM-YYYY, YYYY-MM-DD and DD/MM/YYYY are tried first, then generic layouts.
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, errEmptyDate
	}

	var layout string
	switch {
	case dayFirstDash.MatchString(s):
		layout = "02-01-2006"
	case yearFirstDash.MatchString(s):
		layout = "2006-01-02"
	case dayFirstSlash.MatchString(s):
		layout = "02/01/2006"
	}
	if layout != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
		}
		return t, nil
	}

	for _, l := range fallbackLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// IsValidTime reports whether value is HH:MM or HH:MM:SS.
func IsValidTime(value string) bool {
	return timePattern.MatchString(strings.TrimSpace(value))
}

package journal

import (
	"fmt"
	"time"
)

// DateLayout is the zero-padded ISO calendar date used in keys and records.
const DateLayout = "2006-01-02"

// ParseDate parses a timezone-naive calendar date. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", ErrInvalidInput, s, err)
	}
	return t, nil
}

// FormatDate formats the calendar date of t, ignoring its clock and zone offset.
func FormatDate(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

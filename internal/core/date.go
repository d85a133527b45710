package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the dd-mm-yyyy layout records use for their date.
const DateLayout = "02-01-2006"

// ParseDate parses a dd-mm-yyyy string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t as dd-mm-yyyy.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateSegments splits a dd-mm-yyyy string into its day, month and year parts
// without validating them. Missing parts are returned empty.
func DateSegments(s string) (day, month, year string) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) > 0 {
		day = parts[0]
	}
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		year = parts[2]
	}
	return day, month, year
}

// MonthYear returns the numeric month and year of a dd-mm-yyyy string.
// ok is false when either segment is not a number.
func MonthYear(s string) (month, year int, ok bool) {
	_, m, y := DateSegments(s)
	month, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil {
		return 0, 0, false
	}
	year, err = strconv.Atoi(strings.TrimSpace(y))
	if err != nil {
		return 0, 0, false
	}
	return month, year, true
}

package pipeline

import (
	"strings"
	"time"
)

// dateLayouts are the date shapes a spreadsheet export realistically emits.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 January 2006",
}

// ParseDate parses a record date cell. ok is false when no layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthOf returns the calendar month of a record date cell.
func MonthOf(s string) (time.Month, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return 0, false
	}
	return t.Month(), true
}

package ingest

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for closing date-times, most specific first. A value that
// only carries a date closes at the end of that day.
var closingLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"02/01/2006 15:04", false},
	{"2006-01-02", true},
	{"02/01/2006", true},
}

var publicationLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseDateTime parses a closing date-time as sent by the backend. Values
// without a zone are read in loc.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range closingLayouts {
		t, err := time.ParseInLocation(l.layout, s, loc)
		if err != nil {
			continue
		}
		if l.dateOnly {
			return toEndOfDay(t, loc), nil
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// ParseDate parses a calendar date, ignoring any time part.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	s := truncateDatePart(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range publicationLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// truncateDatePart drops everything after the date: "2026-02-01T10:00:00Z"
// and "2026-02-01 10:00" both become "2026-02-01".
func truncateDatePart(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}
	return s
}

// toEndOfDay sets the time to 23:59:59.999999999 in loc.
func toEndOfDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, loc)
}

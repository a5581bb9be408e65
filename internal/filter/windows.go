package filter

import (
	"fmt"
	"strings"
	"time"
)

// DateWindow names a bucket of time remaining until a tender closes.
type DateWindow string

const (
	WindowToday             DateWindow = "today"
	WindowUnder7Days        DateWindow = "under_7_days"
	WindowBetween7And15Days DateWindow = "between_7_and_15_days"
	WindowOver15Days        DateWindow = "over_15_days"
)

var windowAliases = map[string]DateWindow{
	"today":                 WindowToday,
	"under_7_days":          WindowUnder7Days,
	"under_7":               WindowUnder7Days,
	"between_7_and_15_days": WindowBetween7And15Days,
	"7_15":                  WindowBetween7And15Days,
	"over_15_days":          WindowOver15Days,
	"over_15":               WindowOver15Days,
}

// ParseDateWindow accepts the canonical names and the short forms used by the
// dashboard query string.
func ParseDateWindow(s string) (DateWindow, error) {
	w, ok := windowAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown date window %q", s)
	}
	return w, nil
}

// Contains reports whether a tender closing in hours falls in the window.
// Windows overlap on purpose: today is a subset of under_7_days.
func (w DateWindow) Contains(hours float64) bool {
	switch w {
	case WindowToday:
		return hours >= 0 && hours < 24
	case WindowUnder7Days:
		return hours >= 0 && hours <= 168
	case WindowBetween7And15Days:
		return hours > 168 && hours <= 360
	case WindowOver15Days:
		return hours > 360
	default:
		return false
	}
}

// hoursUntil is the fractional, unclamped number of hours from now to t.
func hoursUntil(t, now time.Time) float64 {
	return t.Sub(now).Hours()
}

// DateRange is an inclusive range; a nil bound is open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func (r *DateRange) isOpen() bool {
	return r == nil || (r.From == nil && r.To == nil)
}

// containsInstant compares instants.
func (r *DateRange) containsInstant(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// containsDate compares calendar dates, each read in its own location.
func (r *DateRange) containsDate(t time.Time) bool {
	d := civilDate(t)
	if r.From != nil && d < civilDate(*r.From) {
		return false
	}
	if r.To != nil && d > civilDate(*r.To) {
		return false
	}
	return true
}

func civilDate(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

package filter

import (
	"slices"
	"strings"
	"time"

	"github.com/david/licitaciones-radar/internal/models"
)

// Evaluate returns the tenders that satisfy every predicate of c, in input
// order. now is the instant the date windows are measured from.
func Evaluate(tenders []models.Tender, c Criteria, now time.Time) []models.Tender {
	needle := strings.ToLower(c.SearchText)
	out := make([]models.Tender, 0, len(tenders))
	for _, t := range tenders {
		if matches(t, c, needle, now) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether a single tender satisfies c.
func Matches(t models.Tender, c Criteria, now time.Time) bool {
	return matches(t, c, strings.ToLower(c.SearchText), now)
}

func matches(t models.Tender, c Criteria, needle string, now time.Time) bool {
	return matchText(t, needle) &&
		c.TenderTypes.Matches(t.TenderType) &&
		matchWindows(t, c.DateWindows, now) &&
		matchRanges(t, c)
}

func matchText(t models.Tender, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

func matchWindows(t models.Tender, windows Selection[DateWindow], now time.Time) bool {
	if windows.IsAll() {
		return true
	}
	if t.ClosesAt == nil {
		return false
	}
	hours := hoursUntil(*t.ClosesAt, now)
	return windows.Any(func(w DateWindow) bool { return w.Contains(hours) })
}

func matchRanges(t models.Tender, c Criteria) bool {
	if !c.PublicationRange.isOpen() {
		if t.PublishedOn == nil || !c.PublicationRange.containsDate(*t.PublishedOn) {
			return false
		}
	}
	if !c.ClosingRange.isOpen() {
		if t.ClosesAt == nil || !c.ClosingRange.containsInstant(*t.ClosesAt) {
			return false
		}
	}
	return true
}

// SortByClosing returns a copy ordered by closing instant, soonest first.
// Tenders without a parseable closing date go last; ties keep input order.
func SortByClosing(tenders []models.Tender) []models.Tender {
	out := slices.Clone(tenders)
	slices.SortStableFunc(out, func(a, b models.Tender) int {
		switch {
		case a.ClosesAt == nil && b.ClosesAt == nil:
			return 0
		case a.ClosesAt == nil:
			return 1
		case b.ClosesAt == nil:
			return -1
		}
		return a.ClosesAt.Compare(*b.ClosesAt)
	})
	return out
}

// TenderTypes lists the distinct non-empty tender types, sorted.
func TenderTypes(tenders []models.Tender) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tenders {
		if t.TenderType == "" {
			continue
		}
		if _, ok := seen[t.TenderType]; ok {
			continue
		}
		seen[t.TenderType] = struct{}{}
		out = append(out, t.TenderType)
	}
	slices.Sort(out)
	return out
}

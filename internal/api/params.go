package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/david/licitaciones-radar/internal/filter"
	"github.com/david/licitaciones-radar/internal/ingest"
)

// splitCSV splits a comma-separated query parameter into trimmed non-empty strings.
func splitCSV(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// multiParam accepts both repeated keys and comma-separated values.
func multiParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		out = append(out, splitCSV(v)...)
	}
	return out
}

// criteriaFromQuery maps the /tenders query string onto filter criteria.
// Catalog codes are not read here; they live in the session.
func criteriaFromQuery(q url.Values, loc *time.Location) (filter.Criteria, error) {
	c := filter.Criteria{}.
		WithSearchText(q.Get("q")).
		WithTenderTypes(filter.SelectionFrom(multiParam(q, "type")))

	var windows []filter.DateWindow
	for _, raw := range multiParam(q, "window") {
		w, err := filter.ParseDateWindow(raw)
		if err != nil {
			return filter.Criteria{}, err
		}
		windows = append(windows, w)
	}
	c = c.WithDateWindows(filter.SelectionFrom(windows))

	pub, err := parseRange(q.Get("pub_from"), q.Get("pub_to"), func(raw string, upper bool) (time.Time, error) {
		return ingest.ParseDate(raw, loc)
	})
	if err != nil {
		return filter.Criteria{}, fmt.Errorf("publication range: %w", err)
	}
	closing, err := parseRange(q.Get("close_from"), q.Get("close_to"), func(raw string, upper bool) (time.Time, error) {
		return parseClosingBound(raw, loc, upper)
	})
	if err != nil {
		return filter.Criteria{}, fmt.Errorf("closing range: %w", err)
	}
	return c.WithPublicationRange(pub).WithClosingRange(closing), nil
}

func parseRange(from, to string, parse func(raw string, upper bool) (time.Time, error)) (*filter.DateRange, error) {
	r := &filter.DateRange{}
	if from = strings.TrimSpace(from); from != "" {
		t, err := parse(from, false)
		if err != nil {
			return nil, err
		}
		r.From = &t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := parse(to, true)
		if err != nil {
			return nil, err
		}
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return nil, fmt.Errorf("end %s is before start %s", to, from)
	}
	return r, nil
}

// parseClosingBound reads a bare date as the start of the day for a lower
// bound and the end of the day for an upper bound. Bounds with an explicit
// offset are moved into loc.
func parseClosingBound(raw string, loc *time.Location, upper bool) (time.Time, error) {
	t, err := ingest.ParseDateTime(raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	t = t.In(loc)
	if !upper && !strings.ContainsAny(raw, "T :") {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
	}
	return t, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

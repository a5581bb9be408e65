package ingest

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cast"
)

// normalizeSpace collapses runs of whitespace into one space and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// mergeUnique appends the items not already present in dst, keeping order.
// Field names are case-sensitive, so comparison is exact.
func mergeUnique(dst []string, items []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range items {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		dst = append(dst, v)
		seen[v] = struct{}{}
	}
	return dst
}

// TruncateText cuts a string to maxLen runes, appending an ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return string(r[:maxLen-3]) + "..."
	}
	return string(r[:maxLen])
}

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return normalizeSpace(markup)
	}
	return normalizeSpace(doc.Text())
}

// lookup returns the value of the first alias present with a non-null value.
func lookup(m map[string]any, aliases []string) (any, bool) {
	for _, key := range aliases {
		if v, ok := m[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(m map[string]any, aliases []string) string {
	v, ok := lookup(m, aliases)
	if !ok {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func lookupInt64(m map[string]any, aliases []string) int64 {
	v, ok := lookup(m, aliases)
	if !ok {
		return 0
	}
	return toInt64(v)
}

// toInt64 accepts numbers and numeric strings; anything else is 0.
func toInt64(v any) int64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		// cast parses with base 0, so "010" would read as octal.
		s = strings.TrimLeft(s, "0")
		if s == "" || strings.HasPrefix(s, ".") {
			return 0
		}
		v = s
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0
	}
	return n
}

func lookupBool(m map[string]any, aliases []string) bool {
	v, ok := lookup(m, aliases)
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

// lookupOptional distinguishes a missing field from an empty one.
func lookupOptional(m map[string]any, aliases []string) *string {
	v, ok := lookup(m, aliases)
	if !ok {
		return nil
	}
	s := cast.ToString(v)
	return &s
}

// unescapeText undoes the entity escaping bluemonday applies to text nodes.
func unescapeText(s string) string {
	return html.UnescapeString(s)
}

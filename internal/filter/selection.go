package filter

import (
	"cmp"
	"encoding/json"
	"slices"
)

// Selection is either All (no filter) or Only a set of values. The zero value
// is All. Only with no members matches nothing; that case is never produced
// implicitly from an empty list, see SelectionFrom.
type Selection[T cmp.Ordered] struct {
	only map[T]struct{}
}

func All[T cmp.Ordered]() Selection[T] {
	return Selection[T]{}
}

func Only[T cmp.Ordered](items ...T) Selection[T] {
	set := make(map[T]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return Selection[T]{only: set}
}

// SelectionFrom applies the dashboard convention: an empty list means no
// filter.
func SelectionFrom[T cmp.Ordered](items []T) Selection[T] {
	if len(items) == 0 {
		return All[T]()
	}
	return Only(items...)
}

func (s Selection[T]) IsAll() bool {
	return s.only == nil
}

func (s Selection[T]) Matches(v T) bool {
	if s.only == nil {
		return true
	}
	_, ok := s.only[v]
	return ok
}

// Any reports whether pred holds for some selected member. All is treated as
// a match without calling pred.
func (s Selection[T]) Any(pred func(T) bool) bool {
	if s.only == nil {
		return true
	}
	for v := range s.only {
		if pred(v) {
			return true
		}
	}
	return false
}

// Items returns the selected members in ascending order, nil for All.
func (s Selection[T]) Items() []T {
	if s.only == nil {
		return nil
	}
	out := make([]T, 0, len(s.only))
	for v := range s.only {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes All as null and Only as a sorted array.
func (s Selection[T]) MarshalJSON() ([]byte, error) {
	if s.only == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Items())
}

func (s *Selection[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		*s = All[T]()
		return nil
	}
	*s = Only(items...)
	return nil
}

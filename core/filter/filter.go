// Package filter composes list predicates for the dashboard views.
//
// Constructors return a nil Predicate when their filter value is not set:
// a nil Predicate is an inactive filter and is skipped by Apply and Set.
package filter

import (
	"strings"
	"time"
)

type Predicate[T any] func(T) bool

// Apply returns the items matching every active predicate, in their original order.
// The input slice is never modified.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	active := compact(preds)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchAll(item, active) {
			out = append(out, item)
		}
	}
	return out
}

// Set is a list of predicates combined with a logical AND.
type Set[T any] struct {
	preds []Predicate[T]
}

// Add registers p. Inactive (nil) predicates are ignored.
func (s *Set[T]) Add(p Predicate[T]) *Set[T] {
	if p != nil {
		s.preds = append(s.preds, p)
	}
	return s
}

func (s *Set[T]) Apply(items []T) []T {
	return Apply(items, s.preds...)
}

// TextSearch does a case-insensitive substring match of query on any of the fields.
func TextSearch[T any](query string, fields ...func(T) string) Predicate[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(fields) == 0 {
		return nil
	}
	return func(item T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(item)), q) {
				return true
			}
		}
		return false
	}
}

// Equal matches items whose field equals *want.
func Equal[T any, V comparable](want *V, field func(T) V) Predicate[T] {
	if want == nil {
		return nil
	}
	w := *want
	return func(item T) bool { return field(item) == w }
}

// Fuzzy matches items whose field contains name, or is contained by it (case-insensitive).
func Fuzzy[T any](name string, field func(T) string) Predicate[T] {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return func(item T) bool { return FuzzyMatch(name, field(item)) }
}

// FuzzyMatch reports whether a contains b or b contains a, ignoring case.
// Blank strings never match.
func FuzzyMatch(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// Range is an inclusive calendar range. A zero bound leaves that side open.
type Range struct {
	From time.Time
	To   time.Time
}

// NewRange returns nil (no filter) when both bounds are zero.
func NewRange(from, to time.Time) *Range {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	return &Range{From: from, To: to}
}

func (r Range) lower() (time.Time, bool) {
	if r.From.IsZero() {
		return time.Time{}, false
	}
	return StartOfDay(r.From), true
}

func (r Range) upper() (time.Time, bool) {
	if r.To.IsZero() {
		return time.Time{}, false
	}
	return EndOfDay(r.To), true
}

// Contains reports whether t falls within [startOfDay(From), endOfDay(To)].
func (r Range) Contains(t time.Time) bool {
	if lo, ok := r.lower(); ok && t.Before(lo) {
		return false
	}
	if hi, ok := r.upper(); ok && t.After(hi) {
		return false
	}
	return true
}

// Overlaps reports whether [start, end] intersects the range: start <= To && end >= From.
func (r Range) Overlaps(start, end time.Time) bool {
	if hi, ok := r.upper(); ok && start.After(hi) {
		return false
	}
	if lo, ok := r.lower(); ok && end.Before(lo) {
		return false
	}
	return true
}

// Within matches point-in-time items whose timestamp falls in r, bounds included.
// Items without a timestamp (ok == false) never match.
func Within[T any](r *Range, at func(T) (time.Time, bool)) Predicate[T] {
	if r == nil {
		return nil
	}
	rng := *r
	return func(item T) bool {
		t, ok := at(item)
		return ok && !t.IsZero() && rng.Contains(t)
	}
}

// Overlap matches ranged items whose [start, end] interval overlaps r.
// Items missing either bound (ok == false) never match.
func Overlap[T any](r *Range, span func(T) (start, end time.Time, ok bool)) Predicate[T] {
	if r == nil {
		return nil
	}
	rng := *r
	return func(item T) bool {
		start, end, ok := span(item)
		return ok && !start.IsZero() && !end.IsZero() && rng.Overlaps(start, end)
	}
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func compact[T any](preds []Predicate[T]) []Predicate[T] {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	return active
}

func matchAll[T any](item T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if !p(item) {
			return false
		}
	}
	return true
}

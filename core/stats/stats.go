// Package stats reduces filtered collections into counts, tallies and rates.
package stats

import (
	"cmp"
	"math"
	"slices"
	"sort"
)

// GroupBy groups items by key, keeping the items' original order inside each group.
func GroupBy[T any, K comparable](items []T, key func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		groups[k] = append(groups[k], item)
	}
	return groups
}

// CountBy counts items per key.
func CountBy[T any, K comparable](items []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, item := range items {
		counts[key(item)]++
	}
	return counts
}

// Count counts the items matching pred.
func Count[T any](items []T, pred func(T) bool) int {
	var n int
	for _, item := range items {
		if pred(item) {
			n++
		}
	}
	return n
}

type KeyCount[K cmp.Ordered] struct {
	Key   K   `json:"key"`
	Count int `json:"count"`
}

// SortedCounts flattens counts ordered by descending count, then ascending key.
func SortedCounts[K cmp.Ordered](counts map[K]int) []KeyCount[K] {
	out := make([]KeyCount[K], 0, len(counts))
	for k, c := range counts {
		out = append(out, KeyCount[K]{Key: k, Count: c})
	}
	slices.SortFunc(out, func(a, b KeyCount[K]) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// Rate returns num/den as a percentage. A zero denominator gives 0.
func Rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// Round2 rounds f to 2 decimals.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Mean returns the average of values, 0 for none.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// TopN returns the n items with the highest score, ties kept in original order.
func TopN[T any](items []T, n int, score func(T) float64) []T {
	if n <= 0 {
		return []T{}
	}
	sorted := append([]T(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return score(sorted[i]) > score(sorted[j]) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		return []T{}
	}
	return sorted
}

package filter

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// BestMatch resolves the candidate whose key best fuzzy-matches name.
//
// Only candidates passing FuzzyMatch are considered. Ties are broken in this order:
//  1. exact case-insensitive match
//  2. highest similarity ratio
//  3. smallest length difference
//  4. smallest key (lexical)
//  5. first in candidates order
func BestMatch[T any](name string, candidates []T, key func(T) string) (T, bool) {
	var (
		best      T
		bestScore matchScore
		found     bool
	)
	for _, c := range candidates {
		k := key(c)
		if !FuzzyMatch(name, k) {
			continue
		}
		score := newMatchScore(name, k)
		if !found || score.better(bestScore) {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

type matchScore struct {
	exact    bool
	ratio    float64
	lenDelta int
	key      string
}

func newMatchScore(name, key string) matchScore {
	a := strings.ToLower(strings.TrimSpace(name))
	b := strings.ToLower(strings.TrimSpace(key))

	delta := len([]rune(a)) - len([]rune(b))
	if delta < 0 {
		delta = -delta
	}
	return matchScore{
		exact:    a == b,
		ratio:    difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio(),
		lenDelta: delta,
		key:      b,
	}
}

// better is strict: equal scores keep the earlier candidate.
func (s matchScore) better(o matchScore) bool {
	if s.exact != o.exact {
		return s.exact
	}
	if s.ratio != o.ratio {
		return s.ratio > o.ratio
	}
	if s.lenDelta != o.lenDelta {
		return s.lenDelta < o.lenDelta
	}
	return s.key < o.key
}

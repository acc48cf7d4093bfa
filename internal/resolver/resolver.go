// Package resolver ranks free text against a short list of known labels.
package resolver

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Selection policy defaults.
const (
	DefaultLimit     = 6
	DefaultThreshold = 0.55
)

// Scores assigned by the rule-based matchers.
const (
	ScoreExact     = 1.0
	ScoreSubstring = 0.95
	ScoreInitials  = 0.93
)

// Match is a candidate label and how well it matched the query.
type Match struct {
	Label string
	Score float64
}

// Rank scores every candidate against query, best first. Ties keep the
// order of candidates.
func Rank(query string, candidates []string) []Match {
	q := Normalize(query)
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		matches = append(matches, Match{Label: candidate, Score: score(q, candidate)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Resolve returns up to DefaultLimit candidates scoring at least
// DefaultThreshold, or the best DefaultLimit when none do.
func Resolve(query string, candidates []string) []Match {
	return ResolveWith(query, candidates, DefaultLimit, DefaultThreshold)
}

// ResolveWith is Resolve with an explicit limit and threshold. The result is
// empty only when candidates is.
func ResolveWith(query string, candidates []string, limit int, threshold float64) []Match {
	ranked := Rank(query, candidates)
	if limit <= 0 {
		limit = DefaultLimit
	}

	var accepted []Match
	for _, m := range ranked {
		if m.Score < threshold {
			break
		}
		accepted = append(accepted, m)
		if len(accepted) == limit {
			break
		}
	}
	if len(accepted) > 0 {
		return accepted
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// score returns the best of the matchers that apply; q is already normalized.
func score(q, candidate string) float64 {
	c := Normalize(candidate)
	if q == "" || c == "" {
		if q == c {
			return ScoreExact
		}
		return 0
	}
	if q == c {
		return ScoreExact
	}

	best := similarity(q, c)
	if strings.Contains(c, q) || strings.Contains(q, c) {
		best = max(best, ScoreSubstring)
	}
	if q == Normalize(initials(candidate)) {
		best = max(best, ScoreInitials)
	}
	return best
}

// similarity is the SequenceMatcher ratio 2*M/T over the runes of a and b.
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return m.Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var casinos = []string{"Casino Gran Madrid", "William Hill", "Bet365"}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "William Hill", want: "williamhill"},
		{in: "  Café-Bar Ñandú! ", want: "cafebarnandu"},
		{in: "Bet365", want: "bet365"},
		{in: "¿?", want: ""},
		{in: "ÁÉÍÓÚ àèìòù", want: "aeiouaeiou"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantTop   string
		wantScore float64
		minScore  bool
	}{
		{name: "joined words", query: "williamhill", wantTop: "William Hill", wantScore: 0.95, minScore: true},
		{name: "exact with accents", query: "casino gran madríd", wantTop: "Casino Gran Madrid", wantScore: ScoreExact},
		{name: "initials", query: "CGM", wantTop: "Casino Gran Madrid", wantScore: 0.93, minScore: true},
		{name: "substring", query: "bet", wantTop: "Bet365", wantScore: ScoreSubstring},
		{name: "typo", query: "wiliam hil", wantTop: "William Hill", wantScore: 0.55, minScore: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank(tt.query, casinos)
			require.Len(t, ranked, len(casinos))
			assert.Equal(t, tt.wantTop, ranked[0].Label)
			if tt.minScore {
				assert.GreaterOrEqual(t, ranked[0].Score, tt.wantScore)
			} else {
				assert.InDelta(t, tt.wantScore, ranked[0].Score, 1e-9)
			}
			for i := 1; i < len(ranked); i++ {
				assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
			}
		})
	}
}

func TestRank_StableTies(t *testing.T) {
	ranked := Rank("zzz", []string{"Mercadona", "Lidl", "Aldi"})
	// No candidate shares a rune with the query, so all tie at zero.
	assert.Equal(t, []Match{{Label: "Mercadona"}, {Label: "Lidl"}, {Label: "Aldi"}}, ranked)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank("anything", nil))

	ranked := Rank("", []string{"Lidl", ""})
	assert.Equal(t, "", ranked[0].Label)
	assert.Equal(t, ScoreExact, ranked[0].Score)
	assert.Equal(t, 0.0, ranked[1].Score)
}

func TestResolve(t *testing.T) {
	t.Run("keeps only candidates above the threshold", func(t *testing.T) {
		got := Resolve("williamhill", casinos)
		require.NotEmpty(t, got)
		assert.Equal(t, "William Hill", got[0].Label)
		for _, m := range got {
			assert.GreaterOrEqual(t, m.Score, DefaultThreshold)
		}
	})

	t.Run("falls back to the best candidates", func(t *testing.T) {
		got := Resolve("qqqq", casinos)
		assert.Len(t, got, len(casinos))
	})

	t.Run("limit", func(t *testing.T) {
		many := []string{"Dia 1", "Dia 2", "Dia 3", "Dia 4", "Dia 5", "Dia 6", "Dia 7", "Dia 8"}
		got := Resolve("dia", many)
		require.Len(t, got, DefaultLimit)
		assert.Equal(t, "Dia 1", got[0].Label)
		assert.Equal(t, "Dia 6", got[5].Label)
	})

	t.Run("fallback honours limit", func(t *testing.T) {
		many := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7"}
		assert.Len(t, ResolveWith("zzzz", many, 3, 0.99), 3)
	})

	t.Run("no candidates", func(t *testing.T) {
		assert.Empty(t, Resolve("lidl", nil))
	})
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.0, similarity("abc", "xyz"), 1e-9)
	// 2*M/T with M=3 ("abc") and T=7.
	assert.InDelta(t, 6.0/7.0, similarity("abcd", "abc"), 1e-9)
}

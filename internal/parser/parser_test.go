package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return New(Config{}, nil)
}

func TestParseSingleWeekWithProgram(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Week 2 (1WK)/Basketball")
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Week: 2, Program: "Basketball"}, pairs[0])

	pairs = p.Parse("Week 5/Soccer")
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Week: 5, Program: "Soccer"}, pairs[0])
}

func TestParseECAWeek(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("ECA Week 3/PK2")
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Week: 3, Program: "PK2"}, pairs[0])
}

func TestParseRangeProducesEveryWeekOnce(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Theater Camp Weeks 2-5")
	require.Len(t, pairs, 4)

	seen := map[int]int{}
	for _, pair := range pairs {
		assert.Equal(t, "Theater Camp", pair.Program)
		seen[pair.Week]++
	}
	for w := 2; w <= 5; w++ {
		assert.Equal(t, 1, seen[w], "week %d", w)
	}
}

func TestParseRangeWithSeparator(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Theater Camp Weeks 2-5/Theater Camp")
	require.Len(t, pairs, 4)
	assert.Equal(t, 2, pairs[0].Week)
	assert.Equal(t, 5, pairs[3].Week)
}

func TestParseAmpersandIsNotARange(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Tiny Tumblers Gymnastics Weeks 4&5")
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{Week: 4, Program: "Tiny Tumblers Gymnastics"}, pairs[0])
	assert.Equal(t, Pair{Week: 5, Program: "Tiny Tumblers Gymnastics"}, pairs[1])
}

func TestParseFullSessionAlias(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Teeny Tiny T'nuah - Full Session/Teeny Tiny T'nuah")
	require.Len(t, pairs, 4)
	for i, pair := range pairs {
		assert.Equal(t, i+1, pair.Week)
		assert.Equal(t, "Teeny Tiny Tnuah", pair.Program)
	}
}

func TestParseTrustWithoutWeekToken(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Children's Trust: Giborim")
	require.Len(t, pairs, 8)
	for i, pair := range pairs {
		assert.Equal(t, i+1, pair.Week)
		assert.Equal(t, "Giborim Children's Trust", pair.Program)
	}
}

func TestParseKoachSessions(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Koach Giborim Week 5-8")
	require.Len(t, pairs, 4)
	for i, pair := range pairs {
		assert.Equal(t, i+5, pair.Week)
		assert.Equal(t, "Koach Giborim", pair.Program)
	}

	// Upstream spells Madli-Teen without the hyphen in Koach sessions.
	pairs = p.Parse("Koach Madliteen Week 3")
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Week: 3, Program: "Koach Madli-Teen"}, pairs[0])

	// No week token at all means the full trust span.
	pairs = p.Parse("Koach Chaverim")
	require.Len(t, pairs, 8)
	assert.Equal(t, "Koach Chaverim", pairs[0].Program)
}

func TestParseKoachTrustVariantCollapses(t *testing.T) {
	p := newTestParser(t)

	pairs := p.Parse("Children's Trust: Giborim (Koach)")
	require.Len(t, pairs, 8)
	for _, pair := range pairs {
		assert.Equal(t, "Giborim Children's Trust", pair.Program)
	}
}

func TestParseMalformedDescriptorIsDropped(t *testing.T) {
	p := newTestParser(t)

	assert.Empty(t, p.Parse("Unknown Gibberish"))
	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("Week 12 (1WK)/Basketball"))
	assert.Empty(t, p.Parse("Week 2 (1WK)/No Such Program"))
}

func TestCanonicalAliases(t *testing.T) {
	p := newTestParser(t)

	name, ok := p.canonical("Extreme T'nuah")
	require.True(t, ok)
	assert.Equal(t, "Extreme Tnuah", name)

	name, ok = p.canonical("Ometz")
	require.True(t, ok)
	assert.Equal(t, "OMETZ", name)

	name, ok = p.canonical("Children's Trust: Chaverim")
	require.True(t, ok)
	assert.Equal(t, "Chaverim Children's Trust", name)

	_, ok = p.canonical("Nonexistent")
	assert.False(t, ok)
}

func TestParseEnrolledFieldSplitsOnKeywords(t *testing.T) {
	p := newTestParser(t)

	pairs := p.ParseEnrolledField("Week 2 (1WK)/Basketball, Week 3 (1WK)/Basketball")
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{Week: 2, Program: "Basketball"}, pairs[0])
	assert.Equal(t, Pair{Week: 3, Program: "Basketball"}, pairs[1])

	pairs = p.ParseEnrolledField("Week 1 (1WK)/Soccer and Week 2 (1WK)/Soccer")
	require.Len(t, pairs, 2)

	pairs = p.ParseEnrolledField("Theater Camp Weeks 2-5 and Week 6 (1WK)/Basketball")
	require.Len(t, pairs, 5)
}

func TestParseEnrolledFieldKeepsEmbeddedCommaTogether(t *testing.T) {
	p := newTestParser(t)

	// The comma is not followed by a session keyword, so no split happens
	// and the whole token fails parsing as one unit.
	pairs := p.ParseEnrolledField("Week 2 (1WK)/Basketball, extra note")
	assert.Empty(t, pairs)
}

func TestParseApplied(t *testing.T) {
	p := newTestParser(t)

	pairs := p.ParseApplied("Week 6 (1WK)", "Madli-Teen")
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Week: 6, Program: "Madli-Teen"}, pairs[0])

	pairs = p.ParseApplied(
		"Week 2 (1WK), Week 3 (1WK) and Week 4 (1WK)",
		"Basketball, Basketball and Basketball",
	)
	require.Len(t, pairs, 3)
	assert.Equal(t, 2, pairs[0].Week)
	assert.Equal(t, 4, pairs[2].Week)
}

func TestParseAppliedTruncatesMismatchedColumns(t *testing.T) {
	p := newTestParser(t)

	pairs := p.ParseApplied("Week 2 (1WK), Week 3 (1WK)", "Basketball")
	require.Len(t, pairs, 1)
	assert.Equal(t, 2, pairs[0].Week)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "Sports Camps", CategoryFor("Basketball"))
	assert.Equal(t, "ECA Camps", CategoryFor("PK4"))
	assert.Equal(t, "Variety Camps", CategoryFor("Giborim Children's Trust"))
	assert.Equal(t, "Other", CategoryFor("Nonexistent"))
}

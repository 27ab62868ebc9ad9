package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// noSynonyms disables the synonym table so weight arithmetic stays exact.
var noSynonyms = []SynonymRule{}

func TestQueryWords(t *testing.T) {
	assert.Equal(t,
		[]string{"how", "do", "i", "create", "an", "organization"},
		QueryWords("How do I create an organization?"))
	assert.Equal(t, []string{"foo", "bar2"}, QueryWords("foo-bar2!"))
	assert.Empty(t, QueryWords("  ?! "))
}

func TestScoreWordBoundaryBeatsSubstring(t *testing.T) {
	s := NewScorer(noSynonyms)
	words := QueryWords("config")

	boundary := s.Score("edit the config file", "", words, "config")
	substring := s.Score("then reconfigure everything", "", words, "config")

	// Boundary hit carries the phrase bonus too since the one-word query
	// appears verbatim in both chunks.
	assert.Equal(t, float64(wordBoundaryWeight+phraseWeight), boundary)
	assert.Equal(t, float64(substringWeight+phraseWeight), substring)
	assert.Greater(t, boundary, substring)
}

func TestScoreCountsEveryOccurrence(t *testing.T) {
	s := NewScorer(noSynonyms)
	words := QueryWords("widget")

	one := s.Score("a widget", "", words, "")
	three := s.Score("widget widget widget", "", words, "")

	assert.Equal(t, float64(wordBoundaryWeight), one)
	assert.Equal(t, float64(3*wordBoundaryWeight), three)
}

func TestScorePathMatch(t *testing.T) {
	s := NewScorer(noSynonyms)
	words := QueryWords("config")

	got := s.Score("nothing relevant here", "docs/config.md", words, "")

	assert.Equal(t, float64(pathWeight), got)
}

func TestScorePhraseBonus(t *testing.T) {
	s := NewScorer(noSynonyms)
	query := "delete account"
	words := QueryWords(query)

	exact := s.Score("how to delete account safely", "", words, query)
	scattered := s.Score("delete the old account", "", words, query)

	// Exact: two boundary words, the phrase, and the bigram.
	assert.Equal(t, float64(2*wordBoundaryWeight+phraseWeight+bigramWeight), exact)
	// Scattered: only the two boundary words.
	assert.Equal(t, float64(2*wordBoundaryWeight), scattered)
}

func TestScoreBigramBonus(t *testing.T) {
	s := NewScorer(noSynonyms)
	query := "access token rotation"
	words := QueryWords(query)

	adjacent := s.Score("rotate your access token monthly", "", words, query)

	// access + token on boundaries plus the "access token" bigram.
	// "rotation" matches only as part of no word here; "rotate" does not
	// contain it, so no third word hit.
	assert.Equal(t, float64(2*wordBoundaryWeight+bigramWeight), adjacent)
}

func TestScoreSkipsShortWords(t *testing.T) {
	s := NewScorer(noSynonyms)

	got := s.Score("xyz xyz", "an/it.md", []string{"an", "it"}, "")

	assert.Equal(t, 0.0, got)
}

func TestScoreCaseInsensitive(t *testing.T) {
	s := NewScorer(noSynonyms)
	words := QueryWords("WEBHOOK")

	assert.Equal(t,
		s.Score("Configure the Webhook here", "", words, "WEBHOOK"),
		s.Score("configure the webhook here", "", words, "webhook"))
}

func TestScoreNeverNegative(t *testing.T) {
	s := NewScorer(nil)
	words := QueryWords("completely unrelated query terms")

	got := s.Score("lorem ipsum dolor", "x/y.md", words, "completely unrelated query terms")

	assert.GreaterOrEqual(t, got, 0.0)
}

func TestScoreSynonymBonus(t *testing.T) {
	rules := []SynonymRule{{
		Triggers: []string{"delete"},
		Matches:  []string{"deactivate"},
		Bonus:    30,
	}}
	s := NewScorer(rules)
	words := QueryWords("delete")

	got := s.Score("you can deactivate it instead", "", words, "delete")

	assert.Equal(t, 30.0, got)
}

func TestScoreMarkdownHeadingPhrase(t *testing.T) {
	s := NewScorer(noSynonyms)
	query := "create asset"
	words := QueryWords(query)

	got := s.Score("## Create Asset\n\nUpload a file to create an asset.", "", words, query)

	// Two boundary words, the exact phrase, and the bigram all fire.
	assert.GreaterOrEqual(t, got, 80.0)
}

func TestScoreDefaultSynonymsOrganizationQuestion(t *testing.T) {
	s := NewScorer(nil)
	query := "How do I create an organization?"
	words := QueryWords(query)

	got := s.Score(
		"To create an organization, open the settings page and click New Organization.",
		"guides/organizations.md", words, query)

	// The chunk answers the question directly; the synonym table alone
	// contributes 90 here (create->create and organization->organization).
	assert.GreaterOrEqual(t, got, 80.0)
}

func TestPathBonus(t *testing.T) {
	s := NewScorer(noSynonyms)
	words := QueryWords("create organization")

	assert.Equal(t, float64(2*pathWeight),
		s.PathBonus("guides/create-organization.md", words))
	assert.Equal(t, 0.0, s.PathBonus("readme.md", words))
}

func TestCountWordMatches(t *testing.T) {
	assert.Equal(t, 2, countWordMatches("the cat sat, cat!", "cat"))
	assert.Equal(t, 0, countWordMatches("concatenate", "cat"))
	assert.Equal(t, 1, countWordMatches("cat", "cat"))
	assert.Equal(t, 0, countWordMatches("", "cat"))
}

func TestCountWordMatchesMultiByteNeighbors(t *testing.T) {
	// A multi-byte letter on either side is still a word rune, not a
	// boundary.
	assert.Equal(t, 0, countWordMatches("日本語cat", "cat"))
	assert.Equal(t, 0, countWordMatches("caté", "cat"))
	assert.Equal(t, 1, countWordMatches("日本語 cat", "cat"))
	assert.Equal(t, 1, countWordMatches("«cat»", "cat"))
}

func TestSynonymRuleApplies(t *testing.T) {
	rule := SynonymRule{
		Triggers: []string{"org", "organization"},
		Matches:  []string{"site"},
		Bonus:    60,
	}

	assert.True(t, rule.applies([]string{"create", "org"}, "manage your site here"))
	assert.False(t, rule.applies([]string{"create"}, "manage your site here"))
	assert.False(t, rule.applies([]string{"org"}, "nothing matching"))
}

// Package search provides keyword-relevance retrieval over the chunk store.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Additive scoring weights. Repeated matches compound.
const (
	wordBoundaryWeight = 15 // query word on a word boundary in the chunk
	substringWeight    = 8  // query word as a plain substring
	pathWeight         = 3  // query word found in the file path
	phraseWeight       = 50 // full query appears verbatim in the chunk
	bigramWeight       = 25 // adjacent query words adjacent in the chunk
)

// minWordLen excludes short words ("a", "of", "to") from per-word scoring.
const minWordLen = 3

// Scorer computes the relevance of one chunk against a query. It is a
// pure function of its inputs plus a fixed synonym table.
type Scorer struct {
	synonyms []SynonymRule
}

// NewScorer creates a Scorer with the given synonym rules. Nil rules
// fall back to the default table.
func NewScorer(rules []SynonymRule) *Scorer {
	if rules == nil {
		rules = DefaultSynonyms()
	}
	return &Scorer{synonyms: rules}
}

// QueryWords tokenizes a query: lower-cased, split on anything that is
// not a letter or digit.
func QueryWords(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Score returns the non-negative relevance of chunkText for the query.
// queryWords must already be lower-cased (see QueryWords). All rules are
// additive and case-insensitive; the inputs are lower-cased once here
// rather than per rule.
func (s *Scorer) Score(chunkText, filePath string, queryWords []string, fullQuery string) float64 {
	chunk := strings.ToLower(chunkText)
	path := strings.ToLower(filePath)
	query := strings.ToLower(strings.TrimSpace(fullQuery))

	var score float64

	for _, word := range queryWords {
		if len(word) < minWordLen {
			continue
		}
		if n := countWordMatches(chunk, word); n > 0 {
			score += wordBoundaryWeight * float64(n)
		} else if n := strings.Count(chunk, word); n > 0 {
			score += substringWeight * float64(n)
		}
		if strings.Contains(path, word) {
			score += pathWeight
		}
	}

	if query != "" && strings.Contains(chunk, query) {
		score += phraseWeight
	}

	for i := 0; i+1 < len(queryWords); i++ {
		bigram := queryWords[i] + " " + queryWords[i+1]
		if strings.Contains(chunk, bigram) {
			score += bigramWeight
		}
	}

	for _, rule := range s.synonyms {
		if rule.applies(queryWords, chunk) {
			score += rule.Bonus
		}
	}

	return score
}

// PathBonus returns the filename-relevance bonus for a file path: the
// path weight for every query word found in it.
func (s *Scorer) PathBonus(filePath string, queryWords []string) float64 {
	path := strings.ToLower(filePath)
	var bonus float64
	for _, word := range queryWords {
		if len(word) < minWordLen {
			continue
		}
		if strings.Contains(path, word) {
			bonus += pathWeight
		}
	}
	return bonus
}

// countWordMatches counts occurrences of word in text that sit on word
// boundaries: the neighbors on both sides, if any, are not letters or
// digits. text and word must be lower-cased.
func countWordMatches(text, word string) int {
	if word == "" {
		return 0
	}
	count := 0
	for start := 0; ; {
		i := strings.Index(text[start:], word)
		if i < 0 {
			break
		}
		i += start
		if boundaryBefore(text, i) && boundaryAfter(text, i+len(word)) {
			count++
		}
		start = i + 1
	}
	return count
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

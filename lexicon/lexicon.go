// Package lexicon holds the shared term extraction used by retrieval and
// classification.
package lexicon

import (
	"strings"
	"unicode"
)

// stopWords is the small Dutch stop list applied to queries and questions
var stopWords = map[string]bool{
	"is": true, "het": true, "een": true, "de": true, "van": true, "en": true,
	"in": true, "op": true, "met": true, "voor": true, "aan": true, "bij": true,
	"te": true, "zijn": true, "er": true, "worden": true, "wordt": true,
	"die": true, "dat": true, "der": true, "den": true, "ook": true, "als": true,
	"the": true, "and": true, "are": true, "for": true,
}

// Terms lowercases text, splits on whitespace, trims surrounding punctuation
// and keeps words longer than two characters that are not stop words.
// Order of first appearance is kept; duplicates are dropped.
func Terms(text string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}
	return terms
}

// WordSet returns the distinct lowercase words of text
func WordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b| of the word sets of two texts, 1 for two
// empty texts.
func Jaccard(a, b string) float64 {
	setA, setB := WordSet(a), WordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	var inter int
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

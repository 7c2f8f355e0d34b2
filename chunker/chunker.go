// Package chunker splits long text into bounded passages along sentence boundaries.
package chunker

import (
	"regexp"
	"strings"
)

// tokensPerWord approximates tokenizer output for Dutch and English prose
const tokensPerWord = 1.3

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)

// EstimateTokens approximates the token count of text
func EstimateTokens(text string) float64 {
	return float64(len(strings.Fields(text))) * tokensPerWord
}

// Sentences splits text on '.', '!' and '?', keeping the delimiters and
// dropping empty sentences.
func Sentences(text string) []string {
	var sentences []string
	for _, raw := range sentencePattern.FindAllString(text, -1) {
		sentence := strings.Join(strings.Fields(raw), " ")
		if strings.Trim(sentence, ".!? ") == "" {
			continue
		}
		sentences = append(sentences, sentence)
	}
	return sentences
}

// Chunk greedily packs whole sentences into chunks of at most maxTokens
// estimated tokens. A sentence longer than maxTokens becomes its own chunk.
func Chunk(text string, maxTokens int) []string {
	var (
		chunks  []string
		current []string
		tokens  float64
	)

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			tokens = 0
		}
	}

	for _, sentence := range Sentences(text) {
		sentenceTokens := EstimateTokens(sentence)
		if len(current) > 0 && tokens+sentenceTokens > float64(maxTokens) {
			flush()
		}
		current = append(current, sentence)
		tokens += sentenceTokens
	}
	flush()

	return chunks
}

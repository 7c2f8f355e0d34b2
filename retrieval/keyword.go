package retrieval

import (
	"sort"
	"strings"

	"tendercheck-backend/lexicon"
	"tendercheck-backend/models"
)

// Keyword match weights
const (
	textMatchScore    = 2
	tagMatchScore     = 3
	articleMatchScore = 5
)

// KeywordScorer ranks a static in-memory corpus by literal term matches.
// It is the fallback when the vector index cannot serve a query.
type KeywordScorer struct {
	chunks []models.LegalChunk
}

// NewKeywordScorer creates a scorer over chunks, kept in the given order
func NewKeywordScorer(chunks []models.LegalChunk) *KeywordScorer {
	return &KeywordScorer{chunks: chunks}
}

// Score sums, per query term, 2 for a match in the text, 3 for a match in
// any tag and 5 for a match in the article or paragraph identifier.
func Score(chunk models.LegalChunk, terms []string) int {
	text := strings.ToLower(chunk.Text)
	article := strings.ToLower(chunk.Article)
	paragraph := strings.ToLower(chunk.Paragraph)

	score := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			score += textMatchScore
		}
		for _, tag := range chunk.Tags {
			if strings.Contains(strings.ToLower(tag), term) {
				score += tagMatchScore
				break
			}
		}
		if (article != "" && strings.Contains(article, term)) ||
			(paragraph != "" && strings.Contains(paragraph, term)) {
			score += articleMatchScore
		}
	}
	return score
}

// Search returns the k highest scoring chunks, corpus order on ties.
// Relevance is the score relative to the best match.
func (s *KeywordScorer) Search(query string, k int) []models.RetrievalResult {
	if k <= 0 {
		return nil
	}
	terms := lexicon.Terms(query)

	type scored struct {
		chunk models.LegalChunk
		score int
	}
	all := make([]scored, len(s.chunks))
	for i, c := range s.chunks {
		all[i] = scored{chunk: c, score: Score(c, terms)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})

	if k > len(all) {
		k = len(all)
	}
	best := 0
	if len(all) > 0 {
		best = all[0].score
	}

	results := make([]models.RetrievalResult, 0, k)
	for _, sc := range all[:k] {
		relevance := 0.0
		if best > 0 {
			relevance = float64(sc.score) / float64(best)
		}
		results = append(results, models.RetrievalResult{
			Chunk:          sc.chunk,
			RelevanceScore: relevance,
			MatchedText:    sc.chunk.Text,
		})
	}
	return results
}

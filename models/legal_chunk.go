package models

import (
	"fmt"
	"strings"
	"time"
)

// LegalChunk is one indexed unit of statutory text
type LegalChunk struct {
	ID        string    `json:"id" yaml:"id"`
	Source    string    `json:"source" yaml:"source"` // e.g. "Aanbestedingswet 2012", "ARW 2016"
	Chapter   string    `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	Article   string    `json:"article,omitempty" yaml:"article,omitempty"`
	Paragraph string    `json:"paragraph,omitempty" yaml:"paragraph,omitempty"`
	Text      string    `json:"text" yaml:"text"`
	Tags      []string  `json:"tags" yaml:"tags"`
	Date      time.Time `json:"date" yaml:"date"`
}

// Citation renders the chunk as a human readable legal reference
func (c LegalChunk) Citation() string {
	switch {
	case c.Article != "":
		return fmt.Sprintf("Art. %s %s", c.Article, c.Source)
	case c.Paragraph != "":
		return fmt.Sprintf("%s par. %s", c.Source, c.Paragraph)
	default:
		return c.Source
	}
}

// Category groups chunks the way the corpus loader labels them
func (c LegalChunk) Category() string {
	if strings.HasPrefix(strings.ToUpper(c.Source), "ARW") {
		return "ARW Regelgeving"
	}
	return "Nederlandse wetgeving"
}

// RetrievalResult is a chunk returned for a query together with its relevance
type RetrievalResult struct {
	Chunk          LegalChunk `json:"chunk"`
	RelevanceScore float64    `json:"relevance_score"` // 0..1
	MatchedText    string     `json:"matched_text"`
}

// Chunks strips the scores off a result list
func Chunks(results []RetrievalResult) []LegalChunk {
	chunks := make([]LegalChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Chunk)
	}
	return chunks
}

// Package corpus provides the legal seed corpus and the checklist definitions.
package corpus

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tendercheck-backend/models"
)

//go:embed data/legal_chunks.yaml data/checklists.yaml
var seedFS embed.FS

// LegalChunks returns the embedded statutory seed corpus in file order
func LegalChunks() []models.LegalChunk {
	data, err := seedFS.ReadFile("data/legal_chunks.yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded corpus missing: %v", err))
	}
	chunks, err := ParseLegalChunks(data, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded corpus invalid: %v", err))
	}
	return chunks
}

// LoadLegalChunks reads a corpus file in YAML or JSON
func LoadLegalChunks(path string) ([]models.LegalChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	return ParseLegalChunks(data, filepath.Ext(path))
}

// ParseLegalChunks decodes a list of chunks. ext selects JSON for ".json",
// YAML otherwise. Every chunk needs an id, a source and text.
func ParseLegalChunks(data []byte, ext string) ([]models.LegalChunk, error) {
	var chunks []models.LegalChunk
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &chunks)
	} else {
		err = yaml.Unmarshal(data, &chunks)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}

	seen := make(map[string]bool, len(chunks))
	for i, c := range chunks {
		if c.ID == "" || c.Source == "" || strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("corpus entry %d: id, source and text are required", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("corpus entry %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
	}
	return chunks, nil
}

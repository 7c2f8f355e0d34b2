package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DocumentKind tells what role a stored document plays
type DocumentKind string

const (
	DocumentBestek       DocumentKind = "bestek"
	DocumentInschrijving DocumentKind = "inschrijving"
	DocumentLegal        DocumentKind = "legal"
)

// Valid reports whether the kind is known
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentBestek, DocumentInschrijving, DocumentLegal:
		return true
	}
	return false
}

// DocumentMetadata holds free-form metadata stored as JSONB
type DocumentMetadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m DocumentMetadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *DocumentMetadata) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = DocumentMetadata{}
		return nil
	}
	if len(bytes) == 0 {
		*m = DocumentMetadata{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Document is an uploaded or ingested document with its extracted text
type Document struct {
	ID          uuid.UUID        `json:"id"`
	Kind        DocumentKind     `json:"kind"`
	Filename    string           `json:"filename"`
	MimeType    string           `json:"mime_type"`
	Size        int64            `json:"size"`
	StoragePath string           `json:"storage_path,omitempty"`
	Content     string           `json:"content"`
	Tags        []string         `json:"tags"`
	Metadata    DocumentMetadata `json:"metadata,omitempty"`
	Embedding   []float32        `json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
}

// DocumentFilter narrows a document search
type DocumentFilter struct {
	Kind  DocumentKind
	Tag   string
	Query string // case-insensitive substring of content or filename
	Limit int
}

// Package repository holds the PostgreSQL (pgx + pgvector) persistence layer.
package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("record not found")

// notFound maps pgx.ErrNoRows to ErrNotFound
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 6, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// nullableVector returns the pgvector literal, or nil for SQL NULL
func nullableVector(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return formatVector(embedding)
}

// likePattern escapes s for use inside an ILIKE '%...%' pattern
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// placeholder numbers query arguments as they are appended
type placeholder struct {
	args []interface{}
}

func (p *placeholder) add(v interface{}) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

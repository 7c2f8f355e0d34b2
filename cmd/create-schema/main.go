package main

import (
	"context"
	"fmt"
	"log"

	"tendercheck-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Enable pgvector extension
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("✓ pgvector extension enabled")
	}

	tables := []struct {
		name string
		sql  string
	}{
		{
			name: "legal_chunks",
			sql: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS legal_chunks (
    -- seq keeps insertion order for tie-breaking
    seq BIGSERIAL,
    id TEXT PRIMARY KEY,

    -- Citation
    source VARCHAR(255) NOT NULL,
    chapter VARCHAR(100) NOT NULL DEFAULT '',
    article VARCHAR(100) NOT NULL DEFAULT '',
    paragraph VARCHAR(100) NOT NULL DEFAULT '',

    -- Content
    chunk_text TEXT NOT NULL,
    tags TEXT[] NOT NULL DEFAULT '{}',
    effective_date DATE,

    embedding vector(%d),

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`, cfg.EmbeddingDimensions),
		},
		{
			name: "documents",
			sql: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    kind VARCHAR(20) NOT NULL CHECK (kind IN ('bestek', 'inschrijving', 'legal')),
    filename VARCHAR(255) NOT NULL,
    mime_type VARCHAR(100) NOT NULL,
    size BIGINT NOT NULL,
    storage_path TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    tags TEXT[] NOT NULL DEFAULT '{}',
    metadata JSONB DEFAULT '{}'::jsonb,
    embedding vector(%d),
    created_at TIMESTAMP DEFAULT NOW()
);`, cfg.EmbeddingDimensions),
		},
		{
			name: "analyses",
			sql: `
CREATE TABLE IF NOT EXISTS analyses (
    id UUID PRIMARY KEY,
    checklist_id VARCHAR(100) NOT NULL,
    bestek_document_id UUID REFERENCES documents(id) ON DELETE SET NULL,
    inschrijving_document_id UUID REFERENCES documents(id) ON DELETE SET NULL,
    bestek_file VARCHAR(255) NOT NULL DEFAULT '',
    inschrijving_file VARCHAR(255) NOT NULL DEFAULT '',
    overall_score INTEGER NOT NULL CHECK (overall_score BETWEEN 0 AND 100),
    risk_level VARCHAR(20) NOT NULL CHECK (risk_level IN ('low', 'medium', 'high', 'critical')),
    report JSONB NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);`,
		},
	}

	for _, table := range tables {
		if _, err := pool.Exec(ctx, table.sql); err != nil {
			log.Fatalf("Failed to create %s table: %v", table.name, err)
		}
		log.Printf("✓ Created %s table", table.name)
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Legal chunk similarity search (HNSW)",
			sql: `CREATE INDEX IF NOT EXISTS idx_legal_chunks_embedding_hnsw ON legal_chunks
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64);`,
		},
		{
			name: "Legal chunk insertion order",
			sql:  "CREATE INDEX IF NOT EXISTS idx_legal_chunks_seq ON legal_chunks(seq);",
		},
		{
			name: "Legal chunk tag filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_legal_chunks_tags ON legal_chunks USING gin (tags);",
		},
		{
			name: "Document kind filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind);",
		},
		{
			name: "Document tag filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING gin (tags);",
		},
		{
			name: "Document recency",
			sql:  "CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);",
		},
		{
			name: "Analysis checklist filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_analyses_checklist ON analyses(checklist_id);",
		},
	}

	for _, idx := range indexes {
		_, err = pool.Exec(ctx, idx.sql)
		if err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Tables: legal_chunks, documents, analyses")
	fmt.Printf("   Indexes: %d indexes created\n", len(indexes))
}

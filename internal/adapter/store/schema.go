package store

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables owned by this service. The catalog
// tables (products, brand_info) are owned by the admin CRUD and are expected
// to exist already.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS entity_embeddings (
	    id           BIGSERIAL PRIMARY KEY,
	    entity_type  TEXT NOT NULL,
	    entity_id    BIGINT NOT NULL,
	    content_type TEXT NOT NULL,
	    content      TEXT NOT NULL DEFAULT '',
	    embedding    VECTOR NOT NULL,
	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    UNIQUE (entity_type, entity_id, content_type)
	)`,
	`CREATE TABLE IF NOT EXISTS query_embeddings (
	    id            BIGSERIAL PRIMARY KEY,
	    query_text    TEXT NOT NULL,
	    embedding     VECTOR NOT NULL,
	    user_id       TEXT NOT NULL DEFAULT '',
	    source        TEXT NOT NULL DEFAULT 'api',
	    results_count INT NOT NULL DEFAULT 0,
	    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    UNIQUE (query_text, user_id, source)
	)`,
	`CREATE TABLE IF NOT EXISTS semantic_search_cache (
	    query_hash       TEXT PRIMARY KEY,
	    query_text       TEXT NOT NULL,
	    query_embedding  VECTOR,
	    results          JSONB NOT NULL,
	    result_count     INT NOT NULL DEFAULT 0,
	    access_count     INT NOT NULL DEFAULT 0,
	    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    last_accessed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	    expires_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_semantic_search_cache_expires ON semantic_search_cache (expires_at)`,
}

// EnsureSchema creates the service-owned tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// VectorStore handles pgvector-specific operations for entity embeddings.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// Upsert writes or overwrites the embedding row keyed by the unique
// (entity_type, entity_id, content_type) triple.
func (v *VectorStore) Upsert(ctx context.Context, e *domain.EntityEmbedding) (int64, error) {
	if !e.EntityType.Valid() {
		return 0, fmt.Errorf("upsert embedding: %w: %q", port.ErrInvalidEntityType, e.EntityType)
	}
	if v.dimension > 0 && len(e.Vector) != v.dimension {
		return 0, fmt.Errorf("upsert embedding: dimension mismatch: got %d, want %d", len(e.Vector), v.dimension)
	}

	query := `INSERT INTO entity_embeddings (entity_type, entity_id, content_type, content, embedding, updated_at)
	          VALUES ($1, $2, $3, $4, $5::vector, NOW())
	          ON CONFLICT (entity_type, entity_id, content_type) DO UPDATE SET
	              content = EXCLUDED.content,
	              embedding = EXCLUDED.embedding,
	              updated_at = NOW()
	          RETURNING id`

	var id int64
	err := v.store.db.QueryRowContext(ctx, query,
		string(e.EntityType), e.EntityID, e.ContentType, e.Content, vectorToString(e.Vector),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert embedding: %w", err)
	}
	return id, nil
}

// AllVectors returns every stored vector of the given type whose owning
// entity is still active. Full scan; acceptable at catalog scale — revisit
// with an ANN index if the catalog grows beyond a few thousand entities.
func (v *VectorStore) AllVectors(ctx context.Context, t domain.EntityType) ([]domain.VectorRow, error) {
	owner, err := ownerTable(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT e.entity_id, e.content_type, e.content, e.embedding::text
	          FROM entity_embeddings e
	          JOIN %s o ON o.id = e.entity_id AND o.is_active = TRUE
	          WHERE e.entity_type = $1
	          ORDER BY e.entity_id, e.content_type`, owner)

	rows, err := v.store.db.QueryContext(ctx, query, string(t))
	if err != nil {
		return nil, fmt.Errorf("all vectors: %w", err)
	}
	defer rows.Close()

	var result []domain.VectorRow
	for rows.Next() {
		var r domain.VectorRow
		var raw string
		if err := rows.Scan(&r.EntityID, &r.ContentType, &r.Content, &raw); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		vec, err := parseVector(raw)
		if err != nil {
			return nil, fmt.Errorf("parse vector for entity %d: %w", r.EntityID, err)
		}
		r.Vector = vec
		result = append(result, r)
	}
	return result, rows.Err()
}

// PurgeInactive deletes embeddings whose owning entity is deactivated.
func (v *VectorStore) PurgeInactive(ctx context.Context, t domain.EntityType) (int64, error) {
	owner, err := ownerTable(t)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`DELETE FROM entity_embeddings e
	          USING %s o
	          WHERE e.entity_type = $1 AND o.id = e.entity_id AND o.is_active = FALSE`, owner)

	res, err := v.store.db.ExecContext(ctx, query, string(t))
	if err != nil {
		return 0, fmt.Errorf("purge inactive: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Stats reports stored row counts for the admin surface.
func (v *VectorStore) Stats(ctx context.Context) (*domain.EmbeddingStats, error) {
	query := `SELECT
	    (SELECT COUNT(*) FROM entity_embeddings WHERE entity_type = 'product'),
	    (SELECT COUNT(*) FROM entity_embeddings WHERE entity_type = 'brand'),
	    (SELECT COUNT(*) FROM query_embeddings),
	    (SELECT COUNT(*) FROM semantic_search_cache)`

	var st domain.EmbeddingStats
	err := v.store.db.QueryRowContext(ctx, query).Scan(&st.Products, &st.Brands, &st.Queries, &st.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("embedding stats: %w", err)
	}
	return &st, nil
}

func ownerTable(t domain.EntityType) (string, error) {
	switch t {
	case domain.EntityProduct:
		return "products", nil
	case domain.EntityBrand:
		return "brand_info", nil
	default:
		return "", fmt.Errorf("%w: %q", port.ErrInvalidEntityType, t)
	}
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = strconv.FormatFloat(float64(val), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector converts pgvector text format back to a float32 slice.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d: %w", i, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

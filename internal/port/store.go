package port

import (
	"context"

	"github.com/atmosferica/shop-assistant/internal/domain"
)

// CatalogStore reads catalog entities. Writes are owned by the admin CRUD
// and are out of scope here.
type CatalogStore interface {
	// ActiveProducts returns up to limit active products (limit <= 0 means
	// all of them).
	ActiveProducts(ctx context.Context, limit int) ([]domain.Product, error)

	// ActiveBrandDocs returns up to limit active brand documents.
	ActiveBrandDocs(ctx context.Context, limit int) ([]domain.BrandDoc, error)

	// ProductsByIDs returns the active products among ids, in no particular
	// order. Inactive ids are silently dropped.
	ProductsByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)

	// BrandDocsByIDs returns the active brand documents among ids.
	BrandDocsByIDs(ctx context.Context, ids []int64) ([]domain.BrandDoc, error)
}

// EmbeddingStore persists entity embeddings keyed by the unique
// (entity_type, entity_id, content_type) triple.
type EmbeddingStore interface {
	// Upsert writes or overwrites the row for the embedding's key triple and
	// returns the stored row id.
	Upsert(ctx context.Context, e *domain.EntityEmbedding) (int64, error)

	// AllVectors returns every stored vector of the given type whose owning
	// entity is still active. Full scan; acceptable at catalog scale.
	AllVectors(ctx context.Context, t domain.EntityType) ([]domain.VectorRow, error)

	// PurgeInactive deletes embeddings whose owning entity is deactivated and
	// returns the number of rows removed.
	PurgeInactive(ctx context.Context, t domain.EntityType) (int64, error)

	// Stats reports stored row counts for the admin surface.
	Stats(ctx context.Context) (*domain.EmbeddingStats, error)
}

// QueryLog records executed search queries for analytics. Best-effort: a
// failed write must never block or fail retrieval.
type QueryLog interface {
	Record(ctx context.Context, rec *domain.QueryEmbeddingRecord) (int64, error)
}

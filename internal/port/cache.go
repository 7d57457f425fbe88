package port

import (
	"context"
	"time"

	"github.com/atmosferica/shop-assistant/internal/domain"
)

// ResultCache is the content-addressed semantic result cache. The identity of
// an entry is (normalized query, entity-type filter, similarity threshold);
// implementations normalize (lowercase, trim) and hash internally. The cache
// is an optimization only: disabling it must never change query results.
type ResultCache interface {
	// Get returns the cached results for the key, or ok=false on miss or
	// expiry. A hit updates access bookkeeping. A malformed entry is a miss.
	Get(ctx context.Context, query string, entityType string, threshold float64) (results []domain.RankedResult, ok bool)

	// Put upserts the entry under the key with the given TTL.
	Put(ctx context.Context, query string, entityType string, threshold float64, queryEmbedding []float32, results []domain.RankedResult, ttl time.Duration) error

	// Sweep deletes all expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int64, error)
}

// ResponseCache is the short-TTL cache for generated chat responses, keyed by
// (message, serialized history).
type ResponseCache interface {
	Get(key string) (string, bool)
	Put(key, value string)
}

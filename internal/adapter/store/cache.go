package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/atmosferica/shop-assistant/internal/domain"
)

// SearchCache is the Postgres-backed semantic result cache. Entries are
// content-addressed by a hash of (normalized query, entity-type filter,
// similarity threshold); expires_at strictly governs validity.
type SearchCache struct {
	store      *PostgresStore
	defaultTTL time.Duration
}

// NewSearchCache creates a result cache with the given default TTL.
func NewSearchCache(store *PostgresStore, defaultTTL time.Duration) *SearchCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &SearchCache{store: store, defaultTTL: defaultTTL}
}

// CacheKey computes the deterministic identity of a cache entry. The query
// is normalized (lowercase, trim) so equivalent spellings share an entry.
func CacheKey(query string, entityType string, threshold float64) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	raw := normalized + "|" + entityType + "|" + strconv.FormatFloat(threshold, 'f', -1, 64)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Get returns cached results for the key, or ok=false on miss or expiry.
// Rows past expires_at are treated as absent even before the sweep runs.
// A row with unparseable results JSON is evicted and reported as a miss.
func (c *SearchCache) Get(ctx context.Context, query string, entityType string, threshold float64) ([]domain.RankedResult, bool) {
	hash := CacheKey(query, entityType, threshold)

	var raw []byte
	err := c.store.db.QueryRowContext(ctx,
		`SELECT results FROM semantic_search_cache WHERE query_hash = $1 AND expires_at > NOW()`,
		hash,
	).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("cache read failed", "error", err)
		}
		return nil, false
	}

	var results []domain.RankedResult
	if err := json.Unmarshal(raw, &results); err != nil {
		slog.Warn("evicting malformed cache entry", "query_hash", hash, "error", err)
		if _, err := c.store.db.ExecContext(ctx, `DELETE FROM semantic_search_cache WHERE query_hash = $1`, hash); err != nil {
			slog.Error("cache eviction failed", "error", err)
		}
		return nil, false
	}

	// Access bookkeeping is best-effort; a failed update does not turn a
	// hit into a miss.
	if _, err := c.store.db.ExecContext(ctx,
		`UPDATE semantic_search_cache
		 SET access_count = access_count + 1, last_accessed_at = NOW()
		 WHERE query_hash = $1`,
		hash,
	); err != nil {
		slog.Error("cache access update failed", "error", err)
	}

	return results, true
}

// Put upserts the entry under the key. A ttl <= 0 falls back to the default;
// concurrent upserts of the same hash resolve last-writer-wins.
func (c *SearchCache) Put(ctx context.Context, query string, entityType string, threshold float64, queryEmbedding []float32, results []domain.RankedResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	hash := CacheKey(query, entityType, threshold)

	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal cache results: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx,
		`INSERT INTO semantic_search_cache
		     (query_hash, query_text, query_embedding, results, result_count, access_count, created_at, last_accessed_at, expires_at)
		 VALUES ($1, $2, $3::vector, $4, $5, 0, NOW(), NOW(), NOW() + $6 * INTERVAL '1 second')
		 ON CONFLICT (query_hash) DO UPDATE SET
		     query_text = EXCLUDED.query_text,
		     query_embedding = EXCLUDED.query_embedding,
		     results = EXCLUDED.results,
		     result_count = EXCLUDED.result_count,
		     expires_at = EXCLUDED.expires_at`,
		hash, query, vectorToString(queryEmbedding), raw, len(results), int64(ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Sweep deletes all expired entries and returns how many were removed. Safe
// to run concurrently with reads and writes.
func (c *SearchCache) Sweep(ctx context.Context) (int64, error) {
	res, err := c.store.db.ExecContext(ctx, `DELETE FROM semantic_search_cache WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// Type filters accepted by Search.
const (
	TypeProducts = "products"
	TypeBrands   = "brands"
	TypeBoth     = "both"
)

// SearchRequest describes one semantic search.
type SearchRequest struct {
	Query      string
	Type       string // products | brands | both
	Threshold  float64
	MaxResults int
	UserID     string
	Source     string
	UseCache   bool
}

// SearchService performs semantic retrieval: embeds the query, ranks stored
// entity vectors by cosine similarity, joins the surviving entities back from
// the catalog, and caches the ranked result list.
type SearchService struct {
	ai       port.AIProvider
	vectors  port.EmbeddingStore
	catalog  port.CatalogStore
	cache    port.ResultCache
	queries  port.QueryLog
	cacheTTL time.Duration
}

// NewSearchService creates a search service. cache and queries may be nil;
// both are optimizations/analytics and never affect result correctness.
func NewSearchService(ai port.AIProvider, vectors port.EmbeddingStore, catalog port.CatalogStore, cache port.ResultCache, queries port.QueryLog, cacheTTL time.Duration) *SearchService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &SearchService{
		ai:       ai,
		vectors:  vectors,
		catalog:  catalog,
		cache:    cache,
		queries:  queries,
		cacheTTL: cacheTTL,
	}
}

// Search runs one semantic search. The returned bool reports whether the
// results came from the cache.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]domain.RankedResult, bool, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, false, port.ErrEmptyQuery
	}

	typeFilter := req.Type
	switch typeFilter {
	case "":
		typeFilter = TypeBoth
	case TypeProducts, TypeBrands, TypeBoth:
	default:
		return nil, false, fmt.Errorf("%w: %q", port.ErrInvalidEntityType, req.Type)
	}

	if req.UseCache && s.cache != nil {
		if results, ok := s.cache.Get(ctx, req.Query, typeFilter, req.Threshold); ok {
			slog.Info("semantic search cache hit", "query", req.Query, "type", typeFilter)
			return results, true, nil
		}
	}

	queryVector, err := s.ai.Embed(ctx, req.Query)
	if err != nil {
		return nil, false, fmt.Errorf("embed query: %w", err)
	}

	var results []domain.RankedResult
	if typeFilter == TypeProducts || typeFilter == TypeBoth {
		hits, err := s.searchProducts(ctx, queryVector, req.Threshold, req.MaxResults)
		if err != nil {
			return nil, false, err
		}
		results = append(results, hits...)
	}
	if typeFilter == TypeBrands || typeFilter == TypeBoth {
		hits, err := s.searchBrands(ctx, queryVector, req.Threshold, req.MaxResults)
		if err != nil {
			return nil, false, err
		}
		results = append(results, hits...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].EntityID < results[j].EntityID
	})
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	// Cache writes and query logging are best-effort side effects: their
	// failure is logged and swallowed, never surfaced to the caller.
	if req.UseCache && s.cache != nil && len(results) > 0 {
		ttl := TTLForQuery(req.Query, s.cacheTTL)
		if err := s.cache.Put(ctx, req.Query, typeFilter, req.Threshold, queryVector, results, ttl); err != nil {
			slog.Error("cache write failed", "query", req.Query, "error", err)
		}
	}
	if s.queries != nil {
		rec := &domain.QueryEmbeddingRecord{
			QueryText:    req.Query,
			Vector:       queryVector,
			UserID:       req.UserID,
			Source:       defaultSource(req.Source),
			ResultsCount: len(results),
		}
		if _, err := s.queries.Record(ctx, rec); err != nil {
			slog.Error("query log write failed", "query", req.Query, "error", err)
		}
	}

	return results, false, nil
}

func (s *SearchService) searchProducts(ctx context.Context, queryVector []float32, threshold float64, maxResults int) ([]domain.RankedResult, error) {
	rows, err := s.vectors.AllVectors(ctx, domain.EntityProduct)
	if err != nil {
		return nil, fmt.Errorf("load product vectors: %w", err)
	}

	matches := DedupMatches(Rank(queryVector, rows, threshold, 0))
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	if len(matches) == 0 {
		return nil, nil
	}

	products, err := s.catalog.ProductsByIDs(ctx, matchIDs(matches))
	if err != nil {
		return nil, fmt.Errorf("load matched products: %w", err)
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	results := make([]domain.RankedResult, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.EntityID]
		if !ok {
			// Embedding outlived its entity (deactivated between scan and
			// join); drop it rather than erroring.
			continue
		}
		results = append(results, domain.RankedResult{
			EntityID:   m.EntityID,
			Similarity: m.Similarity,
			Content:    m.Content,
			Metadata:   p,
			Type:       domain.EntityProduct,
		})
	}
	return results, nil
}

func (s *SearchService) searchBrands(ctx context.Context, queryVector []float32, threshold float64, maxResults int) ([]domain.RankedResult, error) {
	rows, err := s.vectors.AllVectors(ctx, domain.EntityBrand)
	if err != nil {
		return nil, fmt.Errorf("load brand vectors: %w", err)
	}

	matches := DedupMatches(Rank(queryVector, rows, threshold, 0))
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	if len(matches) == 0 {
		return nil, nil
	}

	docs, err := s.catalog.BrandDocsByIDs(ctx, matchIDs(matches))
	if err != nil {
		return nil, fmt.Errorf("load matched brand docs: %w", err)
	}
	byID := make(map[int64]domain.BrandDoc, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	results := make([]domain.RankedResult, 0, len(matches))
	for _, m := range matches {
		d, ok := byID[m.EntityID]
		if !ok {
			continue
		}
		results = append(results, domain.RankedResult{
			EntityID:   m.EntityID,
			Similarity: m.Similarity,
			Content:    m.Content,
			Metadata:   d,
			Type:       domain.EntityBrand,
		})
	}
	return results, nil
}

func matchIDs(matches []Match) []int64 {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.EntityID
	}
	return ids
}

func defaultSource(source string) string {
	if source == "" {
		return "api"
	}
	return source
}

// TTLForQuery applies the category TTL override: high-frequency topics stay
// cached longer than novel queries. A tuning knob, not a correctness rule.
func TTLForQuery(query string, base time.Duration) time.Duration {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "estación") || strings.Contains(lower, "estacion") ||
		strings.Contains(lower, "meteorológica") || strings.Contains(lower, "meteorologica"):
		return 2 * base
	case strings.Contains(lower, "temperatura") || strings.Contains(lower, "humedad"):
		return base + base/2
	default:
		return base
	}
}

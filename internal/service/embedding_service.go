package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// Content facets stored per entity. Each facet gets its own vector row so a
// query can match on name alone, description alone, and so on.
const (
	FacetName        = "name"
	FacetDescription = "description"
	FacetCategory    = "category"
	FacetBrandName   = "brand_name"
	FacetTitle       = "title"
	FacetContent     = "content"
	FacetJSONData    = "json_data"
)

// EmbeddingService generates and persists embeddings: single texts, batches,
// and full catalog rebuilds.
type EmbeddingService struct {
	ai         port.AIProvider
	vectors    port.EmbeddingStore
	catalog    port.CatalogStore
	queries    port.QueryLog
	cache      port.ResultCache
	batchSize  int
	batchDelay time.Duration
}

// NewEmbeddingService creates an embedding service. batchSize <= 0 defaults
// to 10; batchDelay spaces provider calls between batch chunks.
func NewEmbeddingService(ai port.AIProvider, vectors port.EmbeddingStore, catalog port.CatalogStore, queries port.QueryLog, cache port.ResultCache, batchSize int, batchDelay time.Duration) *EmbeddingService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &EmbeddingService{
		ai:         ai,
		vectors:    vectors,
		catalog:    catalog,
		queries:    queries,
		cache:      cache,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Generate embeds one text and persists it. Type query goes to the analytics
// log; product and brand go to the entity embedding store and require an
// entity id.
func (s *EmbeddingService) Generate(ctx context.Context, req domain.EmbeddingRequest) (int64, error) {
	if strings.TrimSpace(req.Text) == "" {
		return 0, port.ErrEmptyText
	}

	vector, err := s.ai.Embed(ctx, req.Text)
	if err != nil {
		return 0, fmt.Errorf("embed text: %w", err)
	}

	if req.Type == domain.EntityQuery {
		return s.queries.Record(ctx, &domain.QueryEmbeddingRecord{
			QueryText: req.Text,
			Vector:    vector,
			UserID:    req.UserID,
			Source:    defaultSource(req.Source),
		})
	}

	if !req.Type.Valid() {
		return 0, fmt.Errorf("%w: %q", port.ErrInvalidEntityType, req.Type)
	}
	if req.EntityID <= 0 {
		return 0, port.ErrMissingEntityID
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = FacetContent
	}
	return s.vectors.Upsert(ctx, &domain.EntityEmbedding{
		EntityType:  req.Type,
		EntityID:    req.EntityID,
		ContentType: contentType,
		Content:     req.Text,
		Vector:      vector,
	})
}

// ProcessBatch runs Generate over all requests in fixed-size chunks with a
// short pause between chunks, to stay under provider rate limits. Failures
// are isolated per item; the result slice is index-aligned with reqs.
// progress, if non-nil, is called after each item with (done, total).
func (s *EmbeddingService) ProcessBatch(ctx context.Context, reqs []domain.EmbeddingRequest, progress func(done, total int)) []domain.EmbeddingResult {
	results := make([]domain.EmbeddingResult, len(reqs))
	total := len(reqs)

	for start := 0; start < total; start += s.batchSize {
		end := start + s.batchSize
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				results[i] = domain.EmbeddingResult{Error: err.Error()}
				continue
			}
			id, err := s.Generate(ctx, reqs[i])
			if err != nil {
				slog.Error("batch item failed", "index", i, "entity_id", reqs[i].EntityID, "error", err)
				results[i] = domain.EmbeddingResult{Error: err.Error()}
			} else {
				results[i] = domain.EmbeddingResult{Success: true, ID: id}
			}
			if progress != nil {
				progress(i+1, total)
			}
		}
		if end < total && s.batchDelay > 0 {
			select {
			case <-time.After(s.batchDelay):
			case <-ctx.Done():
			}
		}
	}
	return results
}

// RebuildProducts re-embeds every active product across its content facets.
// Returns (succeeded, failed).
func (s *EmbeddingService) RebuildProducts(ctx context.Context, progress func(done, total int)) (int, int, error) {
	products, err := s.catalog.ActiveProducts(ctx, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("load products for rebuild: %w", err)
	}

	var reqs []domain.EmbeddingRequest
	for _, p := range products {
		reqs = append(reqs, facetRequests(domain.EntityProduct, p.ID, map[string]string{
			FacetName:        p.Name,
			FacetDescription: p.Description,
			FacetCategory:    p.Category,
		})...)
	}
	ok, failed := tally(s.ProcessBatch(ctx, reqs, progress))
	return ok, failed, nil
}

// RebuildBrands re-embeds every active brand document across its facets.
func (s *EmbeddingService) RebuildBrands(ctx context.Context, progress func(done, total int)) (int, int, error) {
	docs, err := s.catalog.ActiveBrandDocs(ctx, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("load brand docs for rebuild: %w", err)
	}

	var reqs []domain.EmbeddingRequest
	for _, d := range docs {
		facets := map[string]string{
			FacetBrandName: d.BrandName,
			FacetTitle:     d.Title,
			FacetContent:   d.Content,
		}
		if len(d.JSONData) > 0 {
			facets[FacetJSONData] = strings.Join(FlattenJSONText(d.JSONData), " ")
		}
		reqs = append(reqs, facetRequests(domain.EntityBrand, d.ID, facets)...)
	}
	ok, failed := tally(s.ProcessBatch(ctx, reqs, progress))
	return ok, failed, nil
}

func facetRequests(t domain.EntityType, id int64, facets map[string]string) []domain.EmbeddingRequest {
	// Fixed facet order keeps rebuild runs deterministic.
	order := []string{FacetName, FacetDescription, FacetCategory, FacetBrandName, FacetTitle, FacetContent, FacetJSONData}
	var reqs []domain.EmbeddingRequest
	for _, facet := range order {
		text, ok := facets[facet]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		reqs = append(reqs, domain.EmbeddingRequest{
			Text:        text,
			Type:        t,
			EntityID:    id,
			ContentType: facet,
		})
	}
	return reqs
}

func tally(results []domain.EmbeddingResult) (int, int) {
	var ok, failed int
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// Cleanup removes embeddings of deactivated entities and sweeps expired
// cache rows. Returns (embeddings removed, cache entries removed).
func (s *EmbeddingService) Cleanup(ctx context.Context) (int64, int64, error) {
	var removed int64
	for _, t := range []domain.EntityType{domain.EntityProduct, domain.EntityBrand} {
		n, err := s.vectors.PurgeInactive(ctx, t)
		if err != nil {
			return removed, 0, fmt.Errorf("purge %s embeddings: %w", t, err)
		}
		removed += n
	}

	var swept int64
	if s.cache != nil {
		n, err := s.cache.Sweep(ctx)
		if err != nil {
			return removed, 0, fmt.Errorf("sweep cache: %w", err)
		}
		swept = n
	}
	return removed, swept, nil
}

// Stats reports stored embedding and cache row counts.
func (s *EmbeddingService) Stats(ctx context.Context) (*domain.EmbeddingStats, error) {
	return s.vectors.Stats(ctx)
}

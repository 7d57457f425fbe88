package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// Strategy is one tier of the retrieval cascade. A tier that finds nothing
// returns an empty slice and nil error; a tier that fails returns the error
// and the cascade moves on to the next tier. source labels the originating
// channel for query analytics; text tiers ignore it.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, query, source string) ([]domain.RankedResult, error)
}

// Cascade runs its strategies in order and stops at the first tier that
// yields results. Tier failures are logged, never fatal: a broken embedding
// provider degrades retrieval quality instead of taking chat down.
type Cascade struct {
	strategies []Strategy
}

// NewCascade builds a cascade over the given tiers, tried in order.
func NewCascade(strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// FindRelevant returns the first non-empty tier result, deduplicated by
// entity id (first occurrence wins). All tiers empty means no results, which
// is a valid answer, not an error.
func (c *Cascade) FindRelevant(ctx context.Context, query, source string) []domain.RankedResult {
	for _, strat := range c.strategies {
		results, err := strat.Attempt(ctx, query, source)
		if err != nil {
			slog.Warn("retrieval tier failed", "tier", strat.Name(), "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		slog.Info("retrieval tier hit", "tier", strat.Name(), "results", len(results))
		return dedupResults(results)
	}
	return nil
}

func dedupResults(results []domain.RankedResult) []domain.RankedResult {
	seen := make(map[int64]bool, len(results))
	out := results[:0:0]
	for _, r := range results {
		if seen[r.EntityID] {
			continue
		}
		seen[r.EntityID] = true
		out = append(out, r)
	}
	return out
}

// SemanticStrategy is tier 1: embedding search through the SearchService,
// cache included.
type SemanticStrategy struct {
	search     *SearchService
	entityType string
	threshold  float64
	maxResults int
}

func NewSemanticStrategy(search *SearchService, entityType string, threshold float64, maxResults int) *SemanticStrategy {
	return &SemanticStrategy{search: search, entityType: entityType, threshold: threshold, maxResults: maxResults}
}

func (s *SemanticStrategy) Name() string { return "semantic" }

func (s *SemanticStrategy) Attempt(ctx context.Context, query, source string) ([]domain.RankedResult, error) {
	if source == "" {
		source = "chat"
	}
	results, _, err := s.search.Search(ctx, SearchRequest{
		Query:      query,
		Type:       s.entityType,
		Threshold:  s.threshold,
		MaxResults: s.maxResults,
		Source:     source,
		UseCache:   true,
	})
	return results, err
}

// searchDoc is a loaded catalog entity flattened for text matching. texts
// holds every searchable string of the entity, lowercased.
type searchDoc struct {
	result domain.RankedResult
	texts  []string
}

func (d searchDoc) contains(needle string) bool {
	for _, t := range d.texts {
		if strings.Contains(t, needle) {
			return true
		}
	}
	return false
}

// docLoader loads the searchable documents for one entity type. Keyword,
// domain-term and broad tiers share loaders so products and brand docs get
// identical treatment.
type docLoader func(ctx context.Context) ([]searchDoc, error)

// ProductDocLoader flattens active products (name, description, category,
// type, brand, model, tags and nested attributes) into searchable docs.
func ProductDocLoader(catalog port.CatalogStore, limit int) docLoader {
	return func(ctx context.Context) ([]searchDoc, error) {
		products, err := catalog.ActiveProducts(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
		docs := make([]searchDoc, 0, len(products))
		for _, p := range products {
			texts := []string{p.Name, p.Description, p.Category, p.Type, p.Brand, p.Model}
			texts = append(texts, p.Tags...)
			texts = append(texts, FlattenJSONText(p.Attributes)...)
			docs = append(docs, searchDoc{
				result: domain.RankedResult{
					EntityID: p.ID,
					Content:  p.Name + ". " + p.Description,
					Metadata: p,
					Type:     domain.EntityProduct,
				},
				texts: lowerAll(texts),
			})
		}
		return docs, nil
	}
}

// BrandDocLoader flattens active brand documents, including their nested
// json_data payload, into searchable docs.
func BrandDocLoader(catalog port.CatalogStore, limit int) docLoader {
	return func(ctx context.Context) ([]searchDoc, error) {
		brandDocs, err := catalog.ActiveBrandDocs(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("load brand docs: %w", err)
		}
		docs := make([]searchDoc, 0, len(brandDocs))
		for _, d := range brandDocs {
			texts := []string{d.BrandName, d.Title, d.Content, d.Category}
			texts = append(texts, d.Tags...)
			texts = append(texts, FlattenJSONText(d.JSONData)...)
			docs = append(docs, searchDoc{
				result: domain.RankedResult{
					EntityID: d.ID,
					Content:  d.Title + ". " + d.Content,
					Metadata: d,
					Type:     domain.EntityBrand,
				},
				texts: lowerAll(texts),
			})
		}
		return docs, nil
	}
}

func lowerAll(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// KeywordStrategy is tier 2: substring matching of extracted query keywords
// against the flattened entity text, ordered by how many keywords matched.
type KeywordStrategy struct {
	load       docLoader
	maxResults int
}

func NewKeywordStrategy(load docLoader, maxResults int) *KeywordStrategy {
	return &KeywordStrategy{load: load, maxResults: maxResults}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Attempt(ctx context.Context, query, _ string) ([]domain.RankedResult, error) {
	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	docs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		result domain.RankedResult
		hits   int
	}
	var matched []scored
	for _, doc := range docs {
		hits := 0
		for _, kw := range keywords {
			if doc.contains(kw) {
				hits++
			}
		}
		if hits > 0 {
			matched = append(matched, scored{result: doc.result, hits: hits})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].hits != matched[j].hits {
			return matched[i].hits > matched[j].hits
		}
		return matched[i].result.EntityID < matched[j].result.EntityID
	})
	if s.maxResults > 0 && len(matched) > s.maxResults {
		matched = matched[:s.maxResults]
	}

	results := make([]domain.RankedResult, len(matched))
	for i, m := range matched {
		results[i] = m.result
	}
	return results, nil
}

// DomainTermStrategy is tier 3: if the query names a known instrument
// category, return entities mentioning the same term. Queries outside the
// vocabulary skip this tier entirely.
type DomainTermStrategy struct {
	load       docLoader
	maxResults int
}

func NewDomainTermStrategy(load docLoader, maxResults int) *DomainTermStrategy {
	return &DomainTermStrategy{load: load, maxResults: maxResults}
}

func (s *DomainTermStrategy) Name() string { return "domain-term" }

func (s *DomainTermStrategy) Attempt(ctx context.Context, query, _ string) ([]domain.RankedResult, error) {
	terms := MatchedDomainTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	docs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var results []domain.RankedResult
	for _, doc := range docs {
		for _, term := range terms {
			if doc.contains(term) {
				results = append(results, doc.result)
				break
			}
		}
		if s.maxResults > 0 && len(results) >= s.maxResults {
			break
		}
	}
	return results, nil
}

// BroadStrategy is tier 4, the last resort: a bounded scan of active
// entities regardless of the query, so generation always has something to
// describe the catalog with.
type BroadStrategy struct {
	load  docLoader
	limit int
}

func NewBroadStrategy(load docLoader, limit int) *BroadStrategy {
	return &BroadStrategy{load: load, limit: limit}
}

func (s *BroadStrategy) Name() string { return "broad" }

func (s *BroadStrategy) Attempt(ctx context.Context, _, _ string) ([]domain.RankedResult, error) {
	docs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if s.limit > 0 && len(docs) > s.limit {
		docs = docs[:s.limit]
	}
	results := make([]domain.RankedResult, len(docs))
	for i, doc := range docs {
		results[i] = doc.result
	}
	return results, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
)

// fakeProvider returns canned vectors and completions and counts calls.
type fakeProvider struct {
	mu          sync.Mutex
	vectors     map[string][]float32
	defaultVec  []float32
	embedErr    error
	completeFn  func(prompt string) (string, error)
	embedCalls  int
	lastPrompt  string
	completeCnt int
}

func (f *fakeProvider) ModelName() string { return "fake-chat" }

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if v, ok := f.vectors[strings.TrimSpace(text)]; ok {
		return v, nil
	}
	if f.defaultVec != nil {
		return f.defaultVec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeProvider) Complete(_ context.Context, prompt string, _ port.GenerationParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCnt++
	f.lastPrompt = prompt
	if f.completeFn != nil {
		return f.completeFn(prompt)
	}
	return "respuesta", nil
}

func (f *fakeProvider) CompleteStream(ctx context.Context, prompt string, params port.GenerationParams) (<-chan string, error) {
	full, err := f.Complete(ctx, prompt, params)
	if err != nil {
		return nil, err
	}
	ch := make(chan string, 1)
	ch <- full
	close(ch)
	return ch, nil
}

// fakeVectorStore is an in-memory EmbeddingStore keyed by the unique triple.
type fakeVectorStore struct {
	mu      sync.Mutex
	rows    map[string]*domain.EntityEmbedding
	nextID  int64
	calls   int
	loadErr error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{rows: make(map[string]*domain.EntityEmbedding)}
}

func tripleKey(t domain.EntityType, id int64, contentType string) string {
	return fmt.Sprintf("%s/%d/%s", t, id, contentType)
}

func (f *fakeVectorStore) Upsert(_ context.Context, e *domain.EntityEmbedding) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := tripleKey(e.EntityType, e.EntityID, e.ContentType)
	if existing, ok := f.rows[key]; ok {
		existing.Content = e.Content
		existing.Vector = e.Vector
		return existing.ID, nil
	}
	f.nextID++
	stored := *e
	stored.ID = f.nextID
	f.rows[key] = &stored
	return stored.ID, nil
}

func (f *fakeVectorStore) AllVectors(_ context.Context, t domain.EntityType) ([]domain.VectorRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var rows []domain.VectorRow
	for _, e := range f.rows {
		if e.EntityType != t {
			continue
		}
		rows = append(rows, domain.VectorRow{
			EntityID:    e.EntityID,
			ContentType: e.ContentType,
			Content:     e.Content,
			Vector:      e.Vector,
		})
	}
	return rows, nil
}

func (f *fakeVectorStore) PurgeInactive(_ context.Context, _ domain.EntityType) (int64, error) {
	return 0, nil
}

func (f *fakeVectorStore) Stats(_ context.Context) (*domain.EmbeddingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &domain.EmbeddingStats{}
	for _, e := range f.rows {
		switch e.EntityType {
		case domain.EntityProduct:
			stats.Products++
		case domain.EntityBrand:
			stats.Brands++
		}
	}
	return stats, nil
}

func (f *fakeVectorStore) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeCatalog serves fixed products and brand docs, honoring is_active.
type fakeCatalog struct {
	products []domain.Product
	brands   []domain.BrandDoc
	calls    int
}

func (f *fakeCatalog) ActiveProducts(_ context.Context, limit int) ([]domain.Product, error) {
	f.calls++
	var out []domain.Product
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, p)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) ActiveBrandDocs(_ context.Context, limit int) ([]domain.BrandDoc, error) {
	f.calls++
	var out []domain.BrandDoc
	for _, d := range f.brands {
		if d.IsActive {
			out = append(out, d)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) ProductsByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	f.calls++
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Product
	for _, p := range f.products {
		if want[p.ID] && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) BrandDocsByIDs(_ context.Context, ids []int64) ([]domain.BrandDoc, error) {
	f.calls++
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.BrandDoc
	for _, d := range f.brands {
		if want[d.ID] && d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

// fakeResultCache is an in-memory ResultCache with call counters.
type fakeResultCache struct {
	mu       sync.Mutex
	entries  map[string][]domain.RankedResult
	getCalls int
	putCalls int
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{entries: make(map[string][]domain.RankedResult)}
}

func resultCacheKey(query, entityType string, threshold float64) string {
	return fmt.Sprintf("%s|%s|%g", strings.ToLower(strings.TrimSpace(query)), entityType, threshold)
}

func (f *fakeResultCache) Get(_ context.Context, query, entityType string, threshold float64) ([]domain.RankedResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	results, ok := f.entries[resultCacheKey(query, entityType, threshold)]
	return results, ok
}

func (f *fakeResultCache) Put(_ context.Context, query, entityType string, threshold float64, _ []float32, results []domain.RankedResult, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	f.entries[resultCacheKey(query, entityType, threshold)] = results
	return nil
}

func (f *fakeResultCache) Sweep(_ context.Context) (int64, error) { return 0, nil }

// fakeQueryLog collects Record calls with upsert semantics on the unique key.
type fakeQueryLog struct {
	mu      sync.Mutex
	records map[string]*domain.QueryEmbeddingRecord
	nextID  int64
}

func newFakeQueryLog() *fakeQueryLog {
	return &fakeQueryLog{records: make(map[string]*domain.QueryEmbeddingRecord)}
}

func (f *fakeQueryLog) Record(_ context.Context, rec *domain.QueryEmbeddingRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rec.QueryText + "|" + rec.UserID + "|" + rec.Source
	if _, ok := f.records[key]; !ok {
		f.nextID++
	}
	f.records[key] = rec
	return f.nextID, nil
}

func (f *fakeQueryLog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeQueryLog) lastSource() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		return rec.Source
	}
	return ""
}

// fakeStrategy is a cascade tier with canned output and a call counter.
type fakeStrategy struct {
	name       string
	results    []domain.RankedResult
	err        error
	calls      int
	lastSource string
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Attempt(_ context.Context, _, source string) ([]domain.RankedResult, error) {
	f.calls++
	f.lastSource = source
	return f.results, f.err
}

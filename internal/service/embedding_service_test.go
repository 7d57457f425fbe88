package service

import (
	"context"
	"testing"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbeddingService(provider *fakeProvider, vectors *fakeVectorStore, queries *fakeQueryLog) *EmbeddingService {
	return NewEmbeddingService(provider, vectors, seedCatalog(), queries, newFakeResultCache(), 10, 0)
}

func TestGenerateStoresEntityEmbedding(t *testing.T) {
	vectors := newFakeVectorStore()
	svc := newTestEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, vectors, newFakeQueryLog())

	id, err := svc.Generate(context.Background(), domain.EmbeddingRequest{
		Text: "Estación meteorológica", Type: domain.EntityProduct, EntityID: 1, ContentType: "name",
	})
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, 1, vectors.rowCount())
}

func TestGenerateUpsertIdempotent(t *testing.T) {
	vectors := newFakeVectorStore()
	svc := newTestEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, vectors, newFakeQueryLog())

	req := domain.EmbeddingRequest{Text: "Estación", Type: domain.EntityProduct, EntityID: 1, ContentType: "name"}
	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	req.Text = "Estación actualizada"
	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-embedding the same facet keeps the same row")
	assert.Equal(t, 1, vectors.rowCount())
}

func TestGenerateQueryTypeGoesToLog(t *testing.T) {
	vectors := newFakeVectorStore()
	queries := newFakeQueryLog()
	svc := newTestEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, vectors, queries)

	_, err := svc.Generate(context.Background(), domain.EmbeddingRequest{
		Text: "busco anemómetros", Type: domain.EntityQuery, UserID: "u1", Source: "widget",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, queries.count())
	assert.Equal(t, 0, vectors.rowCount())
}

func TestGenerateValidation(t *testing.T) {
	svc := newTestEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, newFakeVectorStore(), newFakeQueryLog())

	_, err := svc.Generate(context.Background(), domain.EmbeddingRequest{Text: "  ", Type: domain.EntityProduct, EntityID: 1})
	assert.ErrorIs(t, err, port.ErrEmptyText)

	_, err = svc.Generate(context.Background(), domain.EmbeddingRequest{Text: "algo", Type: "warehouse", EntityID: 1})
	assert.ErrorIs(t, err, port.ErrInvalidEntityType)

	_, err = svc.Generate(context.Background(), domain.EmbeddingRequest{Text: "algo", Type: domain.EntityProduct})
	assert.ErrorIs(t, err, port.ErrMissingEntityID)
}

func TestProcessBatchPartialFailure(t *testing.T) {
	vectors := newFakeVectorStore()
	svc := newTestEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, vectors, newFakeQueryLog())

	// 15 items; the first has no entity id and must fail alone.
	reqs := make([]domain.EmbeddingRequest, 15)
	reqs[0] = domain.EmbeddingRequest{Text: "sin id", Type: domain.EntityProduct}
	for i := 1; i < 15; i++ {
		reqs[i] = domain.EmbeddingRequest{
			Text: "producto", Type: domain.EntityProduct, EntityID: int64(i), ContentType: "name",
		}
	}

	results := svc.ProcessBatch(context.Background(), reqs, nil)
	require.Len(t, results, 15)

	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
	for i := 1; i < 15; i++ {
		assert.True(t, results[i].Success, "item %d should succeed", i)
	}
	assert.Equal(t, 14, vectors.rowCount())
}

func TestProcessBatchReportsProgress(t *testing.T) {
	svc := newTestEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, newFakeVectorStore(), newFakeQueryLog())

	reqs := []domain.EmbeddingRequest{
		{Text: "a", Type: domain.EntityProduct, EntityID: 1, ContentType: "name"},
		{Text: "b", Type: domain.EntityProduct, EntityID: 2, ContentType: "name"},
	}
	var seen []int
	svc.ProcessBatch(context.Background(), reqs, func(done, total int) {
		assert.Equal(t, 2, total)
		seen = append(seen, done)
	})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestRebuildProductsEmbedsAllFacets(t *testing.T) {
	vectors := newFakeVectorStore()
	catalog := &fakeCatalog{products: []domain.Product{
		{ID: 1, Name: "Estación", Description: "Completa", Category: "estaciones", IsActive: true},
		{ID: 2, Name: "Termómetro", IsActive: true}, // no description/category
		{ID: 3, Name: "Retirado", Description: "x", IsActive: false},
	}}
	svc := NewEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, vectors, catalog, newFakeQueryLog(), nil, 10, 0)

	ok, failed, err := svc.RebuildProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, ok) // 3 facets for product 1, 1 for product 2
	assert.Zero(t, failed)
	assert.Equal(t, 4, vectors.rowCount())
}

func TestRebuildBrandsIncludesJSONData(t *testing.T) {
	vectors := newFakeVectorStore()
	catalog := &fakeCatalog{brands: []domain.BrandDoc{
		{ID: 1, BrandName: "Davis", Title: "Sobre Davis", Content: "Fabricante",
			JSONData: map[string]any{"país": "EEUU"}, IsActive: true},
	}}
	svc := NewEmbeddingService(&fakeProvider{defaultVec: []float32{1, 0, 0}}, vectors, catalog, newFakeQueryLog(), nil, 10, 0)

	ok, failed, err := svc.RebuildBrands(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, ok) // brand_name, title, content, json_data
	assert.Zero(t, failed)
}

package service

import (
	"testing"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilarityScaleInvariant(t *testing.T) {
	a := []float32{0.3, 0.5, 0.2}
	b := []float32{0.6, 1.0, 0.4} // a scaled by 2
	assert.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-6)
}

func rankRows() []domain.VectorRow {
	return []domain.VectorRow{
		{EntityID: 1, ContentType: "name", Vector: []float32{1, 0, 0}},
		{EntityID: 2, ContentType: "name", Vector: []float32{0.9, 0.1, 0}},
		{EntityID: 3, ContentType: "name", Vector: []float32{0, 1, 0}},
		{EntityID: 4, ContentType: "name", Vector: []float32{0.5, 0.5, 0}},
	}
}

func TestRankOrdersBySimilarityDescending(t *testing.T) {
	query := []float32{1, 0, 0}
	matches := Rank(query, rankRows(), 0.1, 0)

	assert.Len(t, matches, 3) // entity 3 is orthogonal, below threshold
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
	assert.Equal(t, int64(1), matches[0].EntityID)
}

func TestRankDeterministic(t *testing.T) {
	query := []float32{1, 0, 0}
	first := Rank(query, rankRows(), 0, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Rank(query, rankRows(), 0, 0))
	}
}

func TestRankTieBreaksByEntityID(t *testing.T) {
	rows := []domain.VectorRow{
		{EntityID: 9, ContentType: "name", Vector: []float32{1, 0}},
		{EntityID: 2, ContentType: "name", Vector: []float32{1, 0}},
		{EntityID: 5, ContentType: "name", Vector: []float32{1, 0}},
	}
	matches := Rank([]float32{1, 0}, rows, 0, 0)
	assert.Equal(t, []int64{2, 5, 9}, []int64{matches[0].EntityID, matches[1].EntityID, matches[2].EntityID})
}

func TestRankThresholdMonotonicity(t *testing.T) {
	query := []float32{1, 0, 0}
	loose := Rank(query, rankRows(), 0.2, 0)
	strict := Rank(query, rankRows(), 0.8, 0)

	assert.LessOrEqual(t, len(strict), len(loose))
	looseIDs := make(map[int64]bool)
	for _, m := range loose {
		looseIDs[m.EntityID] = true
	}
	for _, m := range strict {
		assert.True(t, looseIDs[m.EntityID], "strict result %d missing from loose set", m.EntityID)
	}
}

func TestRankMaxResults(t *testing.T) {
	matches := Rank([]float32{1, 0, 0}, rankRows(), 0, 2)
	assert.Len(t, matches, 2)
}

func TestRankEmptyRows(t *testing.T) {
	assert.Empty(t, Rank([]float32{1, 0}, nil, 0.5, 10))
}

func TestRankAboveThresholdScenario(t *testing.T) {
	// A strong match well above the default 0.4 threshold must survive.
	query := []float32{0.82, 0.57, 0}
	rows := []domain.VectorRow{
		{EntityID: 42, ContentType: "name", Content: "Estación meteorológica WS-2000", Vector: []float32{0.82, 0.57, 0}},
	}
	matches := Rank(query, rows, 0.4, 10)
	assert.Len(t, matches, 1)
	assert.Equal(t, int64(42), matches[0].EntityID)
	assert.Greater(t, matches[0].Similarity, 0.8)
}

func TestDedupMatchesKeepsBestPerEntity(t *testing.T) {
	matches := []Match{
		{EntityID: 1, ContentType: "name", Similarity: 0.9},
		{EntityID: 2, ContentType: "name", Similarity: 0.8},
		{EntityID: 1, ContentType: "description", Similarity: 0.7},
		{EntityID: 2, ContentType: "description", Similarity: 0.6},
	}
	deduped := DedupMatches(matches)
	assert.Len(t, deduped, 2)
	assert.Equal(t, "name", deduped[0].ContentType)
	assert.Equal(t, "name", deduped[1].ContentType)
}

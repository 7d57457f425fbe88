package service

import (
	"math"
	"sort"

	"github.com/atmosferica/shop-assistant/internal/domain"
)

// Match is one scored vector row. An entity with several content-type
// vectors can produce several matches; DedupMatches collapses them.
type Match struct {
	EntityID    int64
	ContentType string
	Content     string
	Similarity  float64
}

// CosineSimilarity computes dot(a,b) / (|a|·|b|). A zero-magnitude or
// mismatched-length pair scores 0, never NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank scores every row against the query vector, discards scores below
// threshold, sorts descending by similarity with ties broken by entity id
// ascending (then content type, for full determinism), and truncates to
// maxResults. An empty row set yields an empty result, not an error.
func Rank(query []float32, rows []domain.VectorRow, threshold float64, maxResults int) []Match {
	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		sim := CosineSimilarity(query, row.Vector)
		if sim < threshold {
			continue
		}
		matches = append(matches, Match{
			EntityID:    row.EntityID,
			ContentType: row.ContentType,
			Content:     row.Content,
			Similarity:  sim,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].EntityID != matches[j].EntityID {
			return matches[i].EntityID < matches[j].EntityID
		}
		return matches[i].ContentType < matches[j].ContentType
	})

	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// DedupMatches keeps one match per entity id. The input is expected sorted
// descending by similarity, so the first occurrence is the best one.
func DedupMatches(matches []Match) []Match {
	seen := make(map[int64]bool, len(matches))
	out := matches[:0:0]
	for _, m := range matches {
		if seen[m.EntityID] {
			continue
		}
		seen[m.EntityID] = true
		out = append(out, m)
	}
	return out
}

package search

import (
	"cmp"
	"slices"

	"github.com/poiesic/colloquy/core"
)

// DefaultMinScore is the similarity floor retrieval uses unless configured otherwise.
const DefaultMinScore float32 = 0.5

// Candidate is a stored chunk and its embedding.
type Candidate struct {
	Chunk  *core.Chunk
	Vector []float32
}

// Rank scores candidates against query and returns at most k results with
// score >= minScore, strictly descending by score. Equal scores keep
// insertion order (ascending chunk ID). An empty corpus ranks to an empty
// slice.
func Rank(query []float32, candidates []Candidate, k int, minScore float32) []core.ScoredResult {
	results := make([]core.ScoredResult, 0, min(max(k, 0), len(candidates)))
	if k <= 0 {
		return results
	}

	for _, c := range candidates {
		if c.Chunk == nil {
			continue
		}
		score := Similarity(query, c.Vector)
		// NaN compares false both ways; it must not pass the threshold.
		if !(score >= minScore) {
			continue
		}
		results = append(results, core.ScoredResult{
			Chunk:   c.Chunk,
			Snippet: c.Chunk.Text,
			Score:   score,
			Source: core.Source{
				Kind:     core.SourceDocument,
				Document: c.Chunk.DocumentName,
				Page:     c.Chunk.Page,
			},
		})
	}

	slices.SortStableFunc(results, func(a, b core.ScoredResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ID, b.Chunk.ID)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

package orchestrator

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// minFederatedFetch is the floor on per-source candidates when merging.
const minFederatedFetch = 20

func federatedFetch(k int) int {
	return max(k*2, minFederatedFetch)
}

// mergeFederated ranks hits from several sources on one scale.
// Per-source lists arrive in source order; equal scores keep that order.
func mergeFederated(perSource [][]domain.RetrievalResult, k int, minScore float64) []domain.RetrievalResult {
	var merged []domain.RetrievalResult
	for _, hits := range perSource {
		for _, h := range hits {
			if h.Score >= minScore {
				merged = append(merged, h)
			}
		}
	}

	slices.SortStableFunc(merged, func(a, b domain.RetrievalResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	for i := range merged {
		merged[i].Rank = i + 1
	}
	if merged == nil {
		merged = []domain.RetrievalResult{}
	}
	return merged
}

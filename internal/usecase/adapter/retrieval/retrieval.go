// Package retrieval serves the RETRIEVAL capability from tenant vector indexes.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter"
	"github.com/kailas-cloud/drugqa/internal/vectorindex"
)

// Index searches one tenant.
type Index interface {
	Search(
		ctx context.Context, tenant domain.TenantID, query []float32, k int, filter vectorindex.Filter,
	) ([]domain.RetrievalResult, error)
}

// Embedder vectorizes the query.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// DefaultTopK is used when the request does not set one.
const DefaultTopK = 5

// Adapter embeds the query and searches the task's tenant.
type Adapter struct {
	index Index
	embed Embedder
}

// New creates a retrieval adapter.
func New(index Index, embed Embedder) *Adapter {
	return &Adapter{index: index, embed: embed}
}

// Invoke returns []domain.RetrievalResult tagged with the tenant as source.
func (a *Adapter) Invoke(ctx context.Context, query string, actx adapter.Context) (any, error) {
	if actx.Tenant == "" {
		return nil, errors.New("retrieval task has no tenant")
	}
	k := actx.TopK
	if k <= 0 {
		k = DefaultTopK
	}

	emb, err := a.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filter vectorindex.Filter
	if actx.DrugID != "" {
		filter = vectorindex.ByDrugID(actx.DrugID)
	}
	hits, err := a.index.Search(ctx, actx.Tenant, emb.Embedding, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", actx.Tenant, err)
	}
	for i := range hits {
		hits[i].Source = string(actx.Tenant)
	}
	return hits, nil
}

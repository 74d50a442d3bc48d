package ingest

import (
	"context"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/vectorindex"
)

// Index is the tenant vector index being written.
type Index interface {
	AddChunks(ctx context.Context, tenant domain.TenantID, chunks []domain.Chunk, embeddings [][]float32) ([]string, error)
	DeleteWhere(ctx context.Context, tenant domain.TenantID, pred vectorindex.Filter) (bool, error)
	Stats(ctx context.Context, tenant domain.TenantID) (vectorindex.Stats, error)
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

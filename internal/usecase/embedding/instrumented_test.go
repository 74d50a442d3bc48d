package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

type mockBatchEmbedder struct {
	mockEmbedder
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = m.result.Embedding
	}
	out.TotalTokens = m.result.TotalTokens * len(texts)
	return out, nil
}

func TestInstrumentedEmbedder_RecordsUsage(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 7}}
	p := NewInstrumentedEmbedder(inner, "test", "m", 0, zap.NewNop())
	ctx, usage := domain.NewContextWithUsage(context.Background())

	if _, err := p.Embed(ctx, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb, _ := usage.Snapshot(); emb != 7 || !usage.Used {
		t.Errorf("usage = %d, used=%v", emb, usage.Used)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	innerErr := errors.New("provider down")
	p := NewInstrumentedEmbedder(&mockEmbedder{err: innerErr}, "test", "m", 0, zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchSplitsBySize(t *testing.T) {
	inner := &mockBatchEmbedder{mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 2}}}
	p := NewInstrumentedEmbedder(inner, "test", "m", 2, zap.NewNop())
	ctx, usage := domain.NewContextWithUsage(context.Background())

	res, err := p.BatchEmbed(ctx, []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 5 || res.TotalTokens != 10 {
		t.Errorf("unexpected result: %d embeddings, %d tokens", len(res.Embeddings), res.TotalTokens)
	}
	if len(inner.batchSizes) != 3 || inner.batchSizes[2] != 1 {
		t.Errorf("expected sub-batches [2 2 1], got %v", inner.batchSizes)
	}
	if emb, _ := usage.Snapshot(); emb != 10 {
		t.Errorf("usage = %d", emb)
	}
}

func TestInstrumentedEmbedder_BatchFallbackToSingle(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 1}}
	p := NewInstrumentedEmbedder(inner, "test", "m", 0, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestInstrumentedEmbedder_BatchEmpty(t *testing.T) {
	p := NewInstrumentedEmbedder(&mockEmbedder{}, "test", "m", 0, zap.NewNop())
	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Errorf("BatchEmbed(nil) = %+v, %v", res, err)
	}
}

func TestInstrumentedEmbedder_BatchInnerError(t *testing.T) {
	innerErr := errors.New("api down")
	inner := &mockBatchEmbedder{mockEmbedder{err: innerErr}}
	p := NewInstrumentedEmbedder(inner, "test", "m", 0, zap.NewNop())

	if _, err := p.BatchEmbed(context.Background(), []string{"a"}); !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

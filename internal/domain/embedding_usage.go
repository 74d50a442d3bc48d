package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects token usage for a single ask or ingest request.
// The handler puts a pointer into the context; embedders and completers add to it
// concurrently from orchestrated tasks; the handler reads it for the response.
type Usage struct {
	mu               sync.Mutex
	EmbeddingTokens  int
	CompletionTokens int
	Used             bool // true if embedding was called, even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with a usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddTokens records consumed embedding tokens.
func (u *Usage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.EmbeddingTokens += n
	u.Used = true
	u.mu.Unlock()
}

// AddCompletionTokens records consumed completion tokens.
func (u *Usage) AddCompletionTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.CompletionTokens += n
	u.mu.Unlock()
}

// Snapshot returns a consistent copy of the counters.
func (u *Usage) Snapshot() (embedding, completion int) {
	if u == nil {
		return 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.EmbeddingTokens, u.CompletionTokens
}

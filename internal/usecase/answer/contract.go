package answer

import (
	"context"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// Completer generates the answer text.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

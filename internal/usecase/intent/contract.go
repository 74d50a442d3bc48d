package intent

import (
	"context"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// Completer generates the classification.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

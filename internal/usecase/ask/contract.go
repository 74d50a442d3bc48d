package ask

import (
	"context"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter"
)

// Classifier decides which capabilities a query needs.
type Classifier interface {
	Classify(ctx context.Context, query string) (domain.CapabilitySet, error)
}

// Orchestrator runs the adapters for the chosen capabilities.
type Orchestrator interface {
	Run(ctx context.Context, query string, caps domain.CapabilitySet, actx adapter.Context) []domain.ToolResult
}

// Normalizer bounds raw adapter output into evidence.
type Normalizer interface {
	Normalize(query string, results []domain.ToolResult) (domain.EvidenceBundle, *domain.Prediction)
}

// Synthesizer writes the final answer. It never fails.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, b domain.EvidenceBundle, p *domain.Prediction) string
}

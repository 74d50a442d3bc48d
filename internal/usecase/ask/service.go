// Package ask runs the full question answering pipeline.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/logger"
	"github.com/kailas-cloud/drugqa/internal/metrics"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter"
)

// FallbackTrace marks answers produced without a classification.
const FallbackTrace = "classifier:fallback"

// Request is one question.
type Request struct {
	Query string
	// Tenants defaults to the public corpus.
	Tenants []domain.TenantID
	Source  domain.TenantID
	DrugID  string
	TopK    int
}

// Usage reports tokens spent on one answer.
type Usage struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Response is the answer plus the evidence it was grounded on.
type Response struct {
	Answer       string                `json:"answer"`
	Capabilities []string              `json:"capabilities"`
	Evidence     domain.EvidenceBundle `json:"evidence"`
	Prediction   *domain.Prediction    `json:"prediction,omitempty"`
	Usage        Usage                 `json:"usage"`
}

// Service wires classifier, orchestrator, normalizer and synthesizer.
type Service struct {
	classifier  Classifier
	orch        Orchestrator
	normalizer  Normalizer
	synthesizer Synthesizer
}

// New creates the pipeline.
func New(c Classifier, o Orchestrator, n Normalizer, s Synthesizer) *Service {
	return &Service{classifier: c, orch: o, normalizer: n, synthesizer: s}
}

// Ask answers one question. Only invalid input is an error; every
// downstream failure degrades into the answer text.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Response{}, domain.ErrEmptyQuery
	}
	tenants := req.Tenants
	if len(tenants) == 0 {
		tenants = []domain.TenantID{domain.PublicTenant}
	}
	for _, t := range tenants {
		if err := t.Validate(); err != nil {
			return Response{}, err
		}
	}
	if req.Source != "" {
		if err := req.Source.Validate(); err != nil {
			return Response{}, err
		}
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	log := logger.FromContext(ctx)

	caps, fellBack, err := s.classify(ctx, query)
	if err != nil {
		return Response{}, err
	}

	results := s.orch.Run(ctx, query, caps, adapter.Context{
		Tenants: tenants,
		Source:  req.Source,
		DrugID:  req.DrugID,
		TopK:    req.TopK,
	})

	bundle, pred := s.normalizer.Normalize(query, results)
	if fellBack {
		bundle.IntentTrace = append([]string{FallbackTrace}, bundle.IntentTrace...)
	}

	answer := s.synthesizer.Synthesize(ctx, query, bundle, pred)

	emb, comp := usage.Snapshot()
	log.Info("Question answered",
		zap.Strings("capabilities", caps.Strings()),
		zap.Strings("trace", bundle.IntentTrace),
		zap.Int("snippets", len(bundle.Snippets)),
		zap.Bool("prediction", pred != nil),
		zap.Int("embedding_tokens", emb),
		zap.Int("completion_tokens", comp),
	)

	return Response{
		Answer:       answer,
		Capabilities: caps.Strings(),
		Evidence:     bundle,
		Prediction:   pred,
		Usage:        Usage{EmbeddingTokens: emb, CompletionTokens: comp},
	}, nil
}

// classify falls back to retrieval only when the classifier is unavailable.
func (s *Service) classify(ctx context.Context, query string) (domain.CapabilitySet, bool, error) {
	caps, err := s.classifier.Classify(ctx, query)
	switch {
	case err == nil:
		return caps, false, nil
	case errors.Is(err, domain.ErrClassificationUnavailable):
		metrics.ClassifierOutcomesTotal.WithLabelValues("fallback").Inc()
		logger.FromContext(ctx).Warn("Intent classification unavailable, assuming retrieval", zap.Error(err))
		return domain.NewCapabilitySet(domain.CapabilityRetrieval), true, nil
	default:
		return nil, false, fmt.Errorf("classify: %w", err)
	}
}

// Package answer renders the evidence bundle into the final user-facing answer.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/logger"
	"github.com/kailas-cloud/drugqa/internal/metrics"
)

// Fallback answers returned instead of errors.
const (
	FallbackUnavailable = "I'm sorry, I could not generate an answer right now. Please try again later."
	FallbackNoContext   = "I'm sorry, I could not complete an answer with the available context."
)

// Config tunes answer generation.
type Config struct {
	Model       string
	MaxTokens   int
	Timeout     time.Duration
	HomeCountry string
	Ratios      map[string]float64
}

// Synthesizer turns evidence into prose through the completion service.
type Synthesizer struct {
	completer Completer
	cfg       Config
}

// New creates a synthesizer. The home country always has ratio 1.
func New(c Completer, cfg Config) *Synthesizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	if cfg.HomeCountry == "" {
		cfg.HomeCountry = domain.DefaultHomeCountry
	}
	ratios := make(map[string]float64, len(cfg.Ratios)+1)
	if cfg.Ratios == nil {
		cfg.Ratios = domain.DefaultPriceRatios()
	}
	for k, v := range cfg.Ratios {
		ratios[k] = v
	}
	ratios[cfg.HomeCountry] = 1
	cfg.Ratios = ratios
	return &Synthesizer{completer: c, cfg: cfg}
}

// Synthesize always returns non-empty text. Completion failures degrade to
// FallbackUnavailable, empty completions to FallbackNoContext.
func (s *Synthesizer) Synthesize(
	ctx context.Context, query string, b domain.EvidenceBundle, p *domain.Prediction,
) string {
	log := logger.FromContext(ctx)
	pr := s.buildPrompt(query, b, p)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Model: s.cfg.Model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: systemPrompt},
			{Role: domain.RoleUser, Content: pr.text},
		},
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		metrics.AnswersTotal.WithLabelValues("fallback_error").Inc()
		log.Error("Answer synthesis failed", zap.Error(fmt.Errorf("%w: %w", domain.ErrSynthesis, err)))
		return FallbackUnavailable
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		metrics.AnswersTotal.WithLabelValues("fallback_empty").Inc()
		log.Warn("Answer synthesis returned empty content")
		return FallbackNoContext
	}

	if p == nil && b.Empty() {
		metrics.AnswersTotal.WithLabelValues("no_evidence").Inc()
	} else {
		metrics.AnswersTotal.WithLabelValues("ok").Inc()
	}
	return ensureLines(text, pr.required)
}

// ensureLines appends required lines the model left out.
func ensureLines(text string, required []string) string {
	var missing []string
	for _, l := range required {
		if !strings.Contains(text, l) {
			missing = append(missing, l)
		}
	}
	if len(missing) == 0 {
		return text
	}
	return text + "\n\n" + strings.Join(missing, "\n")
}

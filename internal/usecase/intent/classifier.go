// Package intent maps a free-text question onto the capabilities needed to answer it.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/metrics"
)

const systemPrompt = "You are an intent classification assistant for a pharmaceutical market-access " +
	"question answering system. A user query may need one or more of the following capabilities: " +
	"RETRIEVAL (look up regulatory, reimbursement or uploaded documents), " +
	"PRICE_PREDICTION (estimate a drug price), " +
	"TIMELINE_PREDICTION (estimate market-access or approval timing). " +
	"Only reply with a JSON array of one or more of those strings (e.g. [\"RETRIEVAL\"]). " +
	"Do not include any additional keys or commentary. If none apply, reply with []."

// Config tunes the classifier.
type Config struct {
	Model     string
	Timeout   time.Duration
	MaxTokens int
	Examples  []Example
}

// Classifier asks the completion service for capability labels.
type Classifier struct {
	completer Completer
	cfg       Config
	fewShot   []domain.Message
	logger    *zap.Logger
}

// New creates a classifier.
func New(c Completer, cfg Config, logger *zap.Logger) *Classifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 32
	}
	return &Classifier{
		completer: c,
		cfg:       cfg,
		fewShot:   fewShotMessages(cfg.Examples),
		logger:    logger,
	}
}

// Classify returns the capabilities a query needs. A blank query yields an
// empty set without calling out. Service failures and unparsable replies
// return domain.ErrClassificationUnavailable; callers choose the fallback.
func (c *Classifier) Classify(ctx context.Context, query string) (domain.CapabilitySet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.NewCapabilitySet(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	msgs := make([]domain.Message, 0, len(c.fewShot)+2)
	msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, c.fewShot...)
	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: query})

	res, err := c.completer.Complete(ctx, domain.CompletionRequest{
		Model:         c.cfg.Model,
		Messages:      msgs,
		Deterministic: true,
		MaxTokens:     c.cfg.MaxTokens,
	})
	if err != nil {
		metrics.ClassifierOutcomesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, err)
	}

	labels, err := parseLabels(res.Text)
	if err != nil {
		metrics.ClassifierOutcomesTotal.WithLabelValues("unparsable").Inc()
		c.logger.Warn("Unparsable classifier output", zap.String("raw", res.Text), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, err)
	}

	set := domain.NewCapabilitySet()
	for _, l := range labels {
		if capability, ok := domain.ParseCapability(l); ok {
			set.Add(capability)
		} else {
			c.logger.Debug("Dropping unknown intent label", zap.String("label", l))
		}
	}
	if len(set) == 0 {
		metrics.ClassifierOutcomesTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.ClassifierOutcomesTotal.WithLabelValues("ok").Inc()
	}
	return set, nil
}

// parseLabels accepts a JSON array of strings, optionally fenced or slightly
// malformed, or an object wrapping it under "intents".
func parseLabels(raw string) ([]string, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, errors.New("empty classifier output")
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		fixed, rerr := jsonrepair.JSONRepair(text)
		if rerr != nil {
			return nil, fmt.Errorf("repair classifier output: %w", rerr)
		}
		if err := json.Unmarshal([]byte(fixed), &v); err != nil {
			return nil, fmt.Errorf("decode classifier output: %w", err)
		}
	}

	if obj, ok := v.(map[string]any); ok {
		v = obj["intents"]
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("classifier output is %T, want array", v)
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // language tag
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

package openai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/metrics"
)

// Completer generates chat completions via the OpenAI-compatible API.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	user        string
	provider    string
}

// CompleterOption tunes a Completer.
type CompleterOption func(*Completer)

// WithTemperature sets the temperature used for non-deterministic requests.
func WithTemperature(t float32) CompleterOption {
	return func(c *Completer) { c.temperature = t }
}

// WithMaxTokens caps the completion length when the request does not.
func WithMaxTokens(n int) CompleterOption {
	return func(c *Completer) { c.maxTokens = n }
}

// NewCompleter creates a completion provider. cfg.Model is the default model.
func NewCompleter(cfg *Config, opts ...CompleterOption) *Completer {
	c := &Completer{
		client:      newClient(cfg),
		model:       cfg.Model,
		temperature: 0.7,
		user:        cfg.User,
		provider:    cfg.Provider,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: c.temperature,
		User:        c.user,
	}
	if req.Deterministic {
		// go-openai omits a zero temperature; this is its documented stand-in for 0.
		chatReq.Temperature = smallestTemperature
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	} else if c.maxTokens > 0 {
		chatReq.MaxTokens = c.maxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError("completion", err, domain.ErrCompletionProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("no choices in completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.provider, model).Observe(duration.Seconds())
	metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues(c.provider, model, "completion").Add(float64(resp.Usage.CompletionTokens))
	domain.UsageFromContext(ctx).AddCompletionTokens(resp.Usage.TotalTokens)

	return domain.CompletionResult{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

const smallestTemperature = math.SmallestNonzeroFloat32

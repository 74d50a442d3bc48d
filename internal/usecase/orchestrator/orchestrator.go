// Package orchestrator plans and runs capability adapters for one query.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/logger"
	"github.com/kailas-cloud/drugqa/internal/metrics"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter"
)

var errPanic = errors.New("adapter panicked")

// Config tunes planning and execution.
type Config struct {
	TopK           int
	MinScore       float64
	TaskTimeout    time.Duration
	MaxConcurrency int
}

// Orchestrator runs retrieval and prediction adapters in dependency order.
//
// Phase one runs every retrieval source and every independent prediction
// concurrently. Phase two runs predictions that consume retrieval output,
// once all retrieval tasks have finished. A failing task becomes an error
// entry and never aborts its siblings.
type Orchestrator struct {
	registry Registry
	cfg      Config
}

// New creates an orchestrator.
func New(registry Registry, cfg Config) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 20 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	return &Orchestrator{registry: registry, cfg: cfg}
}

type task struct {
	capability domain.Capability
	source     string
	adapter    adapter.Adapter
	actx       adapter.Context
}

// Run executes the adapters needed for caps. Retrieval entries come first,
// then predictions in vocabulary order. Federated retrieval collapses into a
// single entry with source "federated" followed by one error entry per
// failed source.
func (o *Orchestrator) Run(
	ctx context.Context, query string, caps domain.CapabilitySet, actx adapter.Context,
) []domain.ToolResult {
	k := actx.TopK
	if k <= 0 {
		k = o.cfg.TopK
	}
	actx.TopK = k

	var (
		retrieval []domain.ToolResult
		phase1    []task
		phase2    []task
	)

	if caps.Has(domain.CapabilityRetrieval) {
		tasks, failed := o.planRetrieval(actx, k)
		retrieval = append(retrieval, failed...)
		phase1 = append(phase1, tasks...)
	}

	predictions := make(map[domain.Capability]domain.ToolResult)
	for _, c := range caps.Sorted() {
		if !c.IsPrediction() {
			continue
		}
		reg, err := o.registry.Lookup(c)
		if err != nil {
			predictions[c] = failure(c, sourceName(c), err)
			continue
		}
		t := task{capability: c, source: sourceName(c), adapter: reg.Adapter, actx: actx}
		if reg.DependsOnRetrieval && caps.Has(domain.CapabilityRetrieval) {
			phase2 = append(phase2, t)
		} else {
			phase1 = append(phase1, t)
		}
	}

	var sourceResults []domain.ToolResult
	for _, r := range o.runPhase(ctx, query, phase1) {
		if r.Capability == domain.CapabilityRetrieval {
			sourceResults = append(sourceResults, r)
		} else {
			predictions[r.Capability] = r
		}
	}
	retrieval = append(o.collectRetrieval(sourceResults, actx, k), retrieval...)

	if len(phase2) > 0 {
		hits := successfulHits(retrieval)
		for i := range phase2 {
			phase2[i].actx.Retrieval = hits
		}
		for _, r := range o.runPhase(ctx, query, phase2) {
			predictions[r.Capability] = r
		}
	}

	out := retrieval
	for _, c := range domain.Capabilities {
		if r, ok := predictions[c]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (o *Orchestrator) planRetrieval(actx adapter.Context, k int) ([]task, []domain.ToolResult) {
	reg, err := o.registry.Lookup(domain.CapabilityRetrieval)
	if err != nil {
		return nil, []domain.ToolResult{failure(domain.CapabilityRetrieval, "", err)}
	}
	sources := actx.Sources()
	if len(sources) == 0 {
		return nil, []domain.ToolResult{failure(domain.CapabilityRetrieval, "", errors.New("no retrieval sources in scope"))}
	}

	fetch := k
	if actx.Federated() {
		fetch = federatedFetch(k)
	}
	tasks := make([]task, 0, len(sources))
	for _, src := range sources {
		tctx := actx
		tctx.Tenant = src
		tctx.TopK = fetch
		tasks = append(tasks, task{
			capability: domain.CapabilityRetrieval,
			source:     string(src),
			adapter:    reg.Adapter,
			actx:       tctx,
		})
	}
	return tasks, nil
}

// collectRetrieval turns per-source outcomes into the retrieval entries.
func (o *Orchestrator) collectRetrieval(
	results []domain.ToolResult, actx adapter.Context, k int,
) []domain.ToolResult {
	if len(results) == 0 {
		return nil
	}

	var (
		entries []domain.ToolResult
		ok      [][]domain.RetrievalResult
		failed  []domain.ToolResult
	)
	for _, r := range results {
		if r.Err == nil {
			hits, isHits := r.Retrieval()
			if !isHits {
				r = failure(r.Capability, r.Source, fmt.Errorf("unexpected retrieval payload %T", r.Payload))
			} else {
				if len(hits) > k && !actx.Federated() {
					r.Payload = hits[:k]
				}
				ok = append(ok, hits)
			}
		}
		if r.Err != nil {
			failed = append(failed, r)
		}
		entries = append(entries, r)
	}

	if !actx.Federated() {
		return entries
	}

	var out []domain.ToolResult
	if len(ok) > 0 {
		out = append(out, domain.ToolResult{
			Capability: domain.CapabilityRetrieval,
			Source:     domain.SourceFederated,
			Payload:    mergeFederated(ok, k, o.cfg.MinScore),
		})
	}
	return append(out, failed...)
}

func (o *Orchestrator) runPhase(ctx context.Context, query string, tasks []task) []domain.ToolResult {
	out := make([]domain.ToolResult, len(tasks))
	var g errgroup.Group
	g.SetLimit(o.cfg.MaxConcurrency)
	for i, t := range tasks {
		g.Go(func() error {
			out[i] = o.runTask(ctx, query, t)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

type outcome struct {
	payload any
	err     error
}

// runTask bounds one adapter call by the task timeout. An adapter that
// ignores cancellation is abandoned, not waited for.
func (o *Orchestrator) runTask(ctx context.Context, query string, t task) domain.ToolResult {
	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, o.cfg.TaskTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", errPanic, r)}
			}
		}()
		p, err := t.adapter.Invoke(tctx, query, t.actx)
		done <- outcome{payload: p, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-tctx.Done():
		res = outcome{err: tctx.Err()}
	}

	status := "ok"
	switch {
	case res.err == nil:
	case errors.Is(res.err, errPanic):
		status = "panic"
	case errors.Is(res.err, context.DeadlineExceeded):
		status = "timeout"
	default:
		status = "error"
	}
	metrics.AdapterTasksTotal.WithLabelValues(string(t.capability), status).Inc()
	metrics.AdapterTaskDuration.WithLabelValues(string(t.capability)).Observe(time.Since(start).Seconds())

	if res.err != nil {
		logger.FromContext(ctx).Warn("Adapter task failed",
			zap.String("capability", string(t.capability)),
			zap.String("source", t.source),
			zap.String("status", status),
			zap.Error(res.err),
		)
		return failure(t.capability, t.source, res.err)
	}
	return domain.ToolResult{Capability: t.capability, Source: t.source, Payload: res.payload}
}

func failure(c domain.Capability, source string, err error) domain.ToolResult {
	return domain.ToolResult{Capability: c, Source: source, Err: domain.NewAdapterError(c, source, err)}
}

// sourceName tags prediction results: PRICE_PREDICTION -> "price".
func sourceName(c domain.Capability) string {
	name, _, _ := strings.Cut(string(c), "_")
	return strings.ToLower(name)
}

func successfulHits(results []domain.ToolResult) []domain.RetrievalResult {
	var hits []domain.RetrievalResult
	for _, r := range results {
		if h, ok := r.Retrieval(); ok {
			hits = append(hits, h...)
		}
	}
	return hits
}

// Package adapter defines the capability adapter contract and its registry.
package adapter

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// Adapter performs one capability for a query.
type Adapter interface {
	Invoke(ctx context.Context, query string, actx Context) (any, error)
}

// Func adapts a function to the Adapter interface.
type Func func(ctx context.Context, query string, actx Context) (any, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, query string, actx Context) (any, error) {
	return f(ctx, query, actx)
}

// Context carries the request scope an adapter may need.
type Context struct {
	// Tenants are the indexes the caller may read, one retrieval source each.
	Tenants []domain.TenantID
	// Source restricts retrieval to a single tenant when set.
	Source domain.TenantID
	// Tenant is the index a retrieval task searches. Set per task.
	Tenant domain.TenantID
	DrugID string
	TopK   int
	// Retrieval holds finished retrieval hits for dependent predictions.
	Retrieval []domain.RetrievalResult
}

// Sources returns the tenants retrieval should fan out to.
func (c Context) Sources() []domain.TenantID {
	if c.Source != "" {
		return []domain.TenantID{c.Source}
	}
	out := make([]domain.TenantID, 0, len(c.Tenants))
	for _, t := range c.Tenants {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// Federated reports whether retrieval results from several sources must be merged.
func (c Context) Federated() bool {
	return c.Source == "" && len(c.Sources()) > 1
}

// Registration binds an adapter to a capability.
type Registration struct {
	Adapter Adapter
	// DependsOnRetrieval delays a prediction until retrieval has finished.
	DependsOnRetrieval bool
}

// Option customizes a registration.
type Option func(*Registration)

// DependsOnRetrieval marks a prediction as consuming retrieval output.
func DependsOnRetrieval() Option {
	return func(r *Registration) { r.DependsOnRetrieval = true }
}

// Registry maps the closed capability vocabulary onto adapters.
type Registry struct {
	mu   sync.RWMutex
	regs map[domain.Capability]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{regs: make(map[domain.Capability]Registration)}
}

// Register binds a to capability c, replacing any previous binding.
func (r *Registry) Register(c domain.Capability, a Adapter, opts ...Option) error {
	if _, ok := domain.ParseCapability(string(c)); !ok {
		return fmt.Errorf("register %q: unknown capability", c)
	}
	if a == nil {
		return fmt.Errorf("register %s: nil adapter", c)
	}
	reg := Registration{Adapter: a}
	for _, o := range opts {
		o(&reg)
	}
	if c == domain.CapabilityRetrieval {
		reg.DependsOnRetrieval = false
	}

	r.mu.Lock()
	r.regs[c] = reg
	r.mu.Unlock()
	return nil
}

// Lookup returns the registration for c.
func (r *Registry) Lookup(c domain.Capability) (Registration, error) {
	r.mu.RLock()
	reg, ok := r.regs[c]
	r.mu.RUnlock()
	if !ok {
		return Registration{}, fmt.Errorf("%s: %w", c, domain.ErrAdapterNotRegistered)
	}
	return reg, nil
}

package orchestrator

import (
	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/adapter"
)

// Registry resolves capabilities to adapters.
type Registry interface {
	Lookup(c domain.Capability) (adapter.Registration, error)
}

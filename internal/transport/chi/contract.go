package chi

import (
	"context"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/drugqa/internal/usecase/health"
	"github.com/kailas-cloud/drugqa/internal/usecase/ingest"
	"github.com/kailas-cloud/drugqa/internal/vectorindex"
)

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, req ask.Request) (ask.Response, error)
}

// Ingester writes and purges tenant documents.
type Ingester interface {
	Ingest(ctx context.Context, tenant domain.TenantID, docs ...ingest.Document) (ingest.Result, error)
	DeleteDrug(ctx context.Context, tenant domain.TenantID, drugID string) (bool, error)
	DeleteFile(ctx context.Context, tenant domain.TenantID, fileID string) (bool, error)
	Stats(ctx context.Context, tenant domain.TenantID) (vectorindex.Stats, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Package ingest chunks plain-text documents, embeds them and adds them to a tenant index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/vectorindex"
)

// Config tunes chunking and embedding.
type Config struct {
	ChunkSize int // words
	Overlap   int // words
	BatchSize int // texts per embedding call
	Workers   int
}

// Document is extracted text plus its lineage. Pages, when set, are chunked
// one by one so chunks keep their page number; otherwise Text is used.
type Document struct {
	DrugID            string   `json:"drug_id"`
	DrugTitle         string   `json:"drug_title"`
	FileID            string   `json:"file_id"`
	Filename          string   `json:"filename"`
	URL               string   `json:"url"`
	Source            string   `json:"source"`
	TherapeuticArea   string   `json:"therapeutic_area"`
	DrugType          string   `json:"drug_type"`
	SubmissionPathway string   `json:"submission_pathway"`
	Text              string   `json:"text"`
	Pages             []string `json:"pages"`
}

// Result summarizes one ingest call.
type Result struct {
	Tenant   domain.TenantID `json:"tenant"`
	ChunkIDs []string        `json:"chunk_ids"`
}

// Service writes documents into tenant indexes.
type Service struct {
	index  Index
	embed  Embedder
	cfg    Config
	pool   *ants.Pool
	logger *zap.Logger
}

// New creates an ingest service with its embedding worker pool.
func New(index Index, embed Embedder, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", cfg.Overlap, cfg.ChunkSize)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create embedding pool: %w", err)
	}
	return &Service{index: index, embed: embed, cfg: cfg, pool: pool, logger: logger.Named("ingest")}, nil
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Ingest chunks and embeds docs, then adds every chunk in one index write.
// Either all chunks land or none do.
func (s *Service) Ingest(ctx context.Context, tenant domain.TenantID, docs ...Document) (Result, error) {
	if err := tenant.Validate(); err != nil {
		return Result{}, err
	}

	chunks := s.chunk(docs)
	if len(chunks) == 0 {
		return Result{Tenant: tenant, ChunkIDs: []string{}}, nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return Result{}, err
	}

	ids, err := s.index.AddChunks(ctx, tenant, chunks, vectors)
	if err != nil {
		return Result{}, fmt.Errorf("add chunks: %w", err)
	}
	s.logger.Info("Documents ingested",
		zap.String("tenant", string(tenant)),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(ids)),
	)
	return Result{Tenant: tenant, ChunkIDs: ids}, nil
}

// DeleteDrug removes every chunk of a drug.
func (s *Service) DeleteDrug(ctx context.Context, tenant domain.TenantID, drugID string) (bool, error) {
	if drugID == "" {
		return false, errors.New("drug id is empty")
	}
	return s.delete(ctx, tenant, vectorindex.ByDrugID(drugID))
}

// DeleteFile removes every chunk extracted from a file.
func (s *Service) DeleteFile(ctx context.Context, tenant domain.TenantID, fileID string) (bool, error) {
	if fileID == "" {
		return false, errors.New("file id is empty")
	}
	return s.delete(ctx, tenant, vectorindex.ByFileID(fileID))
}

// Stats describes a tenant index.
func (s *Service) Stats(ctx context.Context, tenant domain.TenantID) (vectorindex.Stats, error) {
	if err := tenant.Validate(); err != nil {
		return vectorindex.Stats{}, err
	}
	return s.index.Stats(ctx, tenant)
}

func (s *Service) delete(ctx context.Context, tenant domain.TenantID, pred vectorindex.Filter) (bool, error) {
	if err := tenant.Validate(); err != nil {
		return false, err
	}
	return s.index.DeleteWhere(ctx, tenant, pred)
}

func (s *Service) chunk(docs []Document) []domain.Chunk {
	var out []domain.Chunk
	for _, d := range docs {
		pages := d.Pages
		if len(pages) == 0 {
			pages = []string{d.Text}
		}
		idx := 0
		for p, page := range pages {
			for _, w := range splitWords(page, s.cfg.ChunkSize, s.cfg.Overlap) {
				c := domain.Chunk{
					Text:              w.text,
					Source:            d.Source,
					DrugID:            d.DrugID,
					DrugTitle:         d.DrugTitle,
					FileID:            d.FileID,
					Filename:          d.Filename,
					URL:               d.URL,
					ChunkIndex:        idx,
					TherapeuticArea:   d.TherapeuticArea,
					DrugType:          d.DrugType,
					SubmissionPathway: d.SubmissionPathway,
				}
				if len(d.Pages) > 0 {
					c.PageNumber = p + 1
				}
				out = append(out, c)
				idx++
			}
		}
	}
	return out
}

// embedAll embeds texts in batches on the worker pool, keeping input order.
func (s *Service) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(texts))
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			res, err := domain.EmbedAll(ctx, s.embed, texts[start:end])
			if err != nil {
				fail(fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err))
				return
			}
			if len(res.Embeddings) != end-start {
				fail(fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end-1, len(res.Embeddings)))
				return
			}
			copy(out[start:end], res.Embeddings)
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding batch: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

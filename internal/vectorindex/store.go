package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/drugqa/internal/blob"
	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/metrics"
)

// ErrDuplicateChunk signals a chunk id that is already indexed.
var ErrDuplicateChunk = errors.New("chunk already indexed")

// Filter selects chunks. A nil Filter matches everything.
type Filter func(c *domain.Chunk) bool

// ByDrugID matches chunks of one drug.
func ByDrugID(drugID string) Filter {
	return func(c *domain.Chunk) bool { return c.DrugID == drugID }
}

// ByFileID matches chunks extracted from one uploaded file.
func ByFileID(fileID string) Filter {
	return func(c *domain.Chunk) bool { return c.FileID == fileID }
}

// Config holds index store settings.
type Config struct {
	Dimensions  int
	CacheSize   int
	KeyPrefix   string
	LoadTimeout time.Duration
	SaveTimeout time.Duration
}

// Stats describes one tenant index.
type Stats struct {
	Tenant    domain.TenantID `json:"tenant"`
	Chunks    int             `json:"chunks"`
	Dimension int             `json:"dimension"`
	Drugs     int             `json:"drugs"`
	Files     int             `json:"files"`
	UpdatedAt time.Time       `json:"updated_at,omitzero"`
}

// Store owns every tenant index in the process.
//
// Reads are lock-free: they take the published *Snapshot from the cache and
// never see a half-built one. Loads and writes of one tenant are serialized by
// a per-tenant mutex. A write builds the next snapshot aside, persists it,
// then publishes it. Evicting a tenant only drops the in-memory copy.
type Store struct {
	blob   blob.Store
	cfg    Config
	cache  *lru.Cache[domain.TenantID, *Snapshot]
	loads  singleflight.Group
	logger *zap.Logger
	now    func() time.Time

	locksMu sync.Mutex
	locks   map[domain.TenantID]*sync.Mutex
}

// New creates a store over the given object storage.
func New(store blob.Store, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 30 * time.Second
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("vectorindex")

	cache, err := lru.NewWithEvict(cfg.CacheSize, func(t domain.TenantID, _ *Snapshot) {
		metrics.IndexCacheTotal.WithLabelValues("evict").Inc()
		logger.Debug("Tenant index evicted", zap.String("tenant", string(t)))
	})
	if err != nil {
		return nil, fmt.Errorf("create index cache: %w", err)
	}

	return &Store{
		blob:   store,
		cfg:    cfg,
		cache:  cache,
		logger: logger,
		now:    time.Now,
		locks:  make(map[domain.TenantID]*sync.Mutex),
	}, nil
}

// Ensure makes sure the tenant index is loaded, creating an empty one if needed.
func (s *Store) Ensure(ctx context.Context, tenant domain.TenantID) error {
	_, err := s.snapshot(ctx, tenant)
	return err
}

// Snapshot returns the current published view of a tenant index.
func (s *Store) Snapshot(ctx context.Context, tenant domain.TenantID) (*Snapshot, error) {
	return s.snapshot(ctx, tenant)
}

// AddChunks appends chunks with their embeddings and returns the chunk ids.
// Nothing is mutated when counts or widths do not match.
func (s *Store) AddChunks(
	ctx context.Context, tenant domain.TenantID, chunks []domain.Chunk, embeddings [][]float32,
) ([]string, error) {
	if len(chunks) != len(embeddings) {
		return nil, fmt.Errorf("%d chunks but %d embeddings: %w", len(chunks), len(embeddings), domain.ErrVectorDimMismatch)
	}
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	mu := s.lock(tenant)
	mu.Lock()
	defer mu.Unlock()

	cur, err := s.loadLocked(ctx, tenant, true)
	if err != nil {
		return nil, err
	}
	dim := cur.Index.Dim()
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("embedding %d has %d dims, index has %d: %w", i, len(e), dim, domain.ErrVectorDimMismatch)
		}
	}
	if len(chunks) == 0 {
		return []string{}, nil
	}

	now := s.now().UTC()
	base := cur.Len()
	all := make([]domain.Chunk, base, base+len(chunks))
	copy(all, cur.Chunks)
	ids := make([]string, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		c := chunks[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, dup := cur.Slot(c.ID); dup {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, ErrDuplicateChunk)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("chunk %s repeated in batch: %w", c.ID, ErrDuplicateChunk)
		}
		seen[c.ID] = struct{}{}
		if c.Source == "" {
			c.Source = string(tenant)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.WordCount == 0 {
			c.WordCount = len(strings.Fields(c.Text))
		}
		if c.CharCount == 0 {
			c.CharCount = utf8.RuneCountInString(c.Text)
		}
		c.Slot = base + i
		all = append(all, c)
		ids[i] = c.ID
	}

	next := newSnapshot(cur.Index.Append(embeddings), all, now)
	if err := s.commit(ctx, tenant, next); err != nil {
		observe("add", start, err)
		return nil, err
	}
	observe("add", start, nil)

	s.logger.Info("Chunks indexed",
		zap.String("tenant", string(tenant)),
		zap.Int("added", len(ids)),
		zap.Int("total", next.Len()),
	)
	return ids, nil
}

// DeleteWhere removes every chunk matching pred by rebuilding the index from
// the remaining chunks in their original relative order. Cost is O(N) in the
// index size. Returns false when nothing matched.
func (s *Store) DeleteWhere(ctx context.Context, tenant domain.TenantID, pred Filter) (bool, error) {
	if pred == nil {
		return false, fmt.Errorf("delete predicate is required")
	}
	if err := tenant.Validate(); err != nil {
		return false, err
	}

	start := time.Now()
	mu := s.lock(tenant)
	mu.Lock()
	defer mu.Unlock()

	cur, err := s.loadLocked(ctx, tenant, true)
	if err != nil {
		return false, err
	}

	keep := make([]int, 0, cur.Len())
	for i := range cur.Chunks {
		if !pred(&cur.Chunks[i]) {
			keep = append(keep, i)
		}
	}
	removed := cur.Len() - len(keep)
	if removed == 0 {
		return false, nil
	}

	chunks := make([]domain.Chunk, len(keep))
	for newSlot, oldSlot := range keep {
		chunks[newSlot] = cur.Chunks[oldSlot]
		chunks[newSlot].Slot = newSlot
	}
	next := newSnapshot(cur.Index.Retain(keep), chunks, s.now().UTC())
	if err := s.commit(ctx, tenant, next); err != nil {
		observe("delete", start, err)
		return false, err
	}
	observe("delete", start, nil)

	s.logger.Info("Chunks deleted",
		zap.String("tenant", string(tenant)),
		zap.Int("removed", removed),
		zap.Int("remaining", next.Len()),
	)
	return true, nil
}

// Search returns up to k chunks most similar to query, best first.
// With a filter, candidates are over-fetched (k*3, doubling) until k matches
// are found or the index is exhausted.
func (s *Store) Search(
	ctx context.Context, tenant domain.TenantID, query []float32, k int, filter Filter,
) ([]domain.RetrievalResult, error) {
	start := time.Now()
	snap, err := s.snapshot(ctx, tenant)
	if err != nil {
		return nil, err
	}
	n := snap.Len()
	if n == 0 || k <= 0 {
		return []domain.RetrievalResult{}, nil
	}
	if len(query) != snap.Index.Dim() {
		return nil, fmt.Errorf("query has %d dims, index has %d: %w", len(query), snap.Index.Dim(), domain.ErrVectorDimMismatch)
	}

	k = min(k, n)

	var hits []Hit
	if filter == nil {
		hits = snap.Index.Search(query, k)
	} else {
		fetch := min(k, n/3+1) * 3
		for {
			fetch = min(fetch, n)
			hits = hits[:0]
			for _, h := range snap.Index.Search(query, fetch) {
				if filter(&snap.Chunks[h.Slot]) {
					hits = append(hits, h)
					if len(hits) == k {
						break
					}
				}
			}
			if len(hits) == k || fetch == n {
				break
			}
			fetch *= 2
		}
	}

	out := make([]domain.RetrievalResult, len(hits))
	for i, h := range hits {
		c := &snap.Chunks[h.Slot]
		out[i] = domain.RetrievalResult{
			Text:     c.Text,
			Metadata: c.Metadata(),
			Score:    float64(h.Score),
			Rank:     i + 1,
			Source:   string(tenant),
		}
	}
	observe("search", start, nil)
	return out, nil
}

// Stats summarizes a tenant index.
func (s *Store) Stats(ctx context.Context, tenant domain.TenantID) (Stats, error) {
	snap, err := s.snapshot(ctx, tenant)
	if err != nil {
		return Stats{}, err
	}
	drugs := make(map[string]struct{})
	files := make(map[string]struct{})
	for i := range snap.Chunks {
		if d := snap.Chunks[i].DrugID; d != "" {
			drugs[d] = struct{}{}
		}
		if f := snap.Chunks[i].FileID; f != "" {
			files[f] = struct{}{}
		}
	}
	return Stats{
		Tenant:    tenant,
		Chunks:    snap.Len(),
		Dimension: snap.Index.Dim(),
		Drugs:     len(drugs),
		Files:     len(files),
		UpdatedAt: snap.UpdatedAt,
	}, nil
}

// Cached reports whether a tenant is currently held in memory.
func (s *Store) Cached(tenant domain.TenantID) bool {
	return s.cache.Contains(tenant)
}

func (s *Store) snapshot(ctx context.Context, tenant domain.TenantID) (*Snapshot, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if snap, ok := s.cache.Get(tenant); ok {
		metrics.IndexCacheTotal.WithLabelValues("hit").Inc()
		return snap, nil
	}
	metrics.IndexCacheTotal.WithLabelValues("miss").Inc()

	// Concurrent first readers share one load. The load must not die with
	// whichever caller happened to start it.
	ch := s.loads.DoChan(string(tenant), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LoadTimeout)
		defer cancel()
		mu := s.lock(tenant)
		mu.Lock()
		defer mu.Unlock()
		return s.loadLocked(lctx, tenant, false)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load index %s: %w", tenant, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// loadLocked returns the cached snapshot or reads it from storage.
// Missing and corrupt checkpoints start a fresh index. When storage cannot be
// read at all, readers get an empty index that is not cached and writers get
// domain.ErrIndexLoad, so the stored corpus is never overwritten.
// Must be called with the tenant lock held.
func (s *Store) loadLocked(ctx context.Context, tenant domain.TenantID, write bool) (*Snapshot, error) {
	if snap, ok := s.cache.Get(tenant); ok {
		return snap, nil
	}

	start := time.Now()
	key := blob.IndexKey(s.cfg.KeyPrefix, string(tenant))
	data, err := s.blob.Get(ctx, key)

	var snap *Snapshot
	switch {
	case errors.Is(err, blob.ErrNotFound):
		snap = emptySnapshot(s.cfg.Dimensions)
		if err := s.persist(ctx, tenant, snap); err != nil {
			observe("load", start, err)
			return nil, err
		}
		s.logger.Info("Created empty tenant index", zap.String("tenant", string(tenant)))
	case err != nil:
		err = fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
		observe("load", start, err)
		if write {
			return nil, err
		}
		s.logger.Warn("Tenant index storage unreachable, serving empty",
			zap.String("tenant", string(tenant)),
			zap.Error(err),
		)
		return emptySnapshot(s.cfg.Dimensions), nil
	default:
		decoded, derr := decodeSnapshot(data)
		if derr != nil {
			snap = s.fresh(tenant, fmt.Errorf("%w: %w", domain.ErrIndexLoad, derr))
			break
		}
		if decoded.Index.Dim() != s.cfg.Dimensions {
			s.logger.Warn("Persisted index width differs from configuration",
				zap.String("tenant", string(tenant)),
				zap.Int("persisted", decoded.Index.Dim()),
				zap.Int("configured", s.cfg.Dimensions),
			)
		}
		snap = decoded
	}
	observe("load", start, nil)

	s.publish(tenant, snap)
	return snap, nil
}

// fresh bootstraps an empty index after a corrupt checkpoint.
func (s *Store) fresh(tenant domain.TenantID, cause error) *Snapshot {
	s.logger.Warn("Tenant index unreadable, starting empty",
		zap.String("tenant", string(tenant)),
		zap.Error(cause),
	)
	return emptySnapshot(s.cfg.Dimensions)
}

// commit persists next and publishes it. A caller that is already canceled
// changes nothing; once the save has started it runs to completion so that
// storage and cache agree.
func (s *Store) commit(ctx context.Context, tenant domain.TenantID, next *Snapshot) error {
	if err := next.validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexSave, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit %s: %w", tenant, err)
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SaveTimeout)
	defer cancel()
	if err := s.persist(sctx, tenant, next); err != nil {
		return err
	}
	s.publish(tenant, next)
	return nil
}

func (s *Store) persist(ctx context.Context, tenant domain.TenantID, snap *Snapshot) error {
	start := time.Now()
	data, err := encodeSnapshot(snap)
	if err == nil {
		err = s.blob.Put(ctx, blob.IndexKey(s.cfg.KeyPrefix, string(tenant)), data)
	}
	observe("save", start, err)
	if err != nil {
		s.logger.Error("Failed to save tenant index",
			zap.String("tenant", string(tenant)),
			zap.Int("chunks", snap.Len()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", domain.ErrIndexSave, err)
	}
	return nil
}

func (s *Store) publish(tenant domain.TenantID, snap *Snapshot) {
	s.cache.Add(tenant, snap)
	metrics.IndexCachedTenants.Set(float64(s.cache.Len()))
}

// lock returns the tenant mutex. Entries are never removed so that two
// writers can never hold different mutexes for the same tenant.
func (s *Store) lock(tenant domain.TenantID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[tenant]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[tenant] = mu
	}
	return mu
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IndexOperationsTotal.WithLabelValues(op, status).Inc()
	metrics.IndexOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

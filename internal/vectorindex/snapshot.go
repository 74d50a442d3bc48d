package vectorindex

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

const snapshotVersion = 1

// Snapshot is one immutable, consistent view of a tenant index.
// Chunks[i].Slot == i for every i, and Index.Len() == len(Chunks).
type Snapshot struct {
	Index     *Flat
	Chunks    []domain.Chunk
	UpdatedAt time.Time

	byID map[string]int
}

// wireSnapshot is the persisted msgpack layout.
type wireSnapshot struct {
	Version   int            `msgpack:"v"`
	Dim       int            `msgpack:"dim"`
	Vectors   []float32      `msgpack:"vectors"`
	Chunks    []domain.Chunk `msgpack:"chunks"`
	UpdatedAt time.Time      `msgpack:"updated_at"`
}

func newSnapshot(idx *Flat, chunks []domain.Chunk, at time.Time) *Snapshot {
	s := &Snapshot{Index: idx, Chunks: chunks, UpdatedAt: at, byID: make(map[string]int, len(chunks))}
	for i := range chunks {
		s.byID[chunks[i].ID] = i
	}
	return s
}

func emptySnapshot(dim int) *Snapshot {
	return newSnapshot(NewFlat(dim), nil, time.Time{})
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int { return len(s.Chunks) }

// Slot returns the vector slot of a chunk id.
func (s *Snapshot) Slot(id string) (int, bool) {
	slot, ok := s.byID[id]
	return slot, ok
}

// validate checks the slot invariants of a decoded or freshly built snapshot.
func (s *Snapshot) validate() error {
	if s.Index.Len() != len(s.Chunks) {
		return fmt.Errorf("index holds %d vectors but %d chunks", s.Index.Len(), len(s.Chunks))
	}
	if len(s.byID) != len(s.Chunks) {
		return fmt.Errorf("duplicate chunk ids")
	}
	for i := range s.Chunks {
		if s.Chunks[i].Slot != i {
			return fmt.Errorf("chunk %s has slot %d at position %d", s.Chunks[i].ID, s.Chunks[i].Slot, i)
		}
	}
	return nil
}

func encodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(&wireSnapshot{
		Version:   snapshotVersion,
		Dim:       s.Index.dim,
		Vectors:   s.Index.data,
		Chunks:    s.Chunks,
		UpdatedAt: s.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var w wireSnapshot
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if w.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", w.Version)
	}
	if w.Dim <= 0 || len(w.Vectors)%w.Dim != 0 {
		return nil, fmt.Errorf("vector data of length %d does not fit dim %d", len(w.Vectors), w.Dim)
	}
	s := newSnapshot(&Flat{dim: w.Dim, data: w.Vectors}, w.Chunks, w.UpdatedAt)
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

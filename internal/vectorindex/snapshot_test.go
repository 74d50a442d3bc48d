package vectorindex

import (
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

func TestDecodeSnapshot_RejectsBrokenInvariants(t *testing.T) {
	tests := []struct {
		name string
		wire wireSnapshot
	}{
		{"count mismatch", wireSnapshot{Version: 1, Dim: 2, Vectors: []float32{1, 0, 0, 1}, Chunks: []domain.Chunk{{ID: "a"}}}},
		{"bad slot", wireSnapshot{Version: 1, Dim: 2, Vectors: []float32{1, 0}, Chunks: []domain.Chunk{{ID: "a", Slot: 3}}}},
		{"ragged vectors", wireSnapshot{Version: 1, Dim: 2, Vectors: []float32{1, 0, 1}}},
		{"duplicate ids", wireSnapshot{Version: 1, Dim: 1, Vectors: []float32{1, 1}, Chunks: []domain.Chunk{{ID: "a"}, {ID: "a", Slot: 1}}}},
		{"unknown version", wireSnapshot{Version: 9, Dim: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := msgpack.Marshal(&tt.wire)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if _, err := decodeSnapshot(data); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestEncodeDecode_PreservesSearch(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	idx := NewFlat(2).Append([][]float32{{1, 0}, {0, 1}})
	orig := newSnapshot(idx, []domain.Chunk{{ID: "a", Slot: 0}, {ID: "b", Slot: 1}}, at)

	data, err := encodeSnapshot(orig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
	if slot, ok := got.Slot("b"); !ok || slot != 1 {
		t.Errorf("Slot(b) = %d, %v", slot, ok)
	}
	if hits := got.Index.Search([]float32{0, 1}, 1); hits[0].Slot != 1 {
		t.Errorf("decoded index searches differently: %+v", hits)
	}
}

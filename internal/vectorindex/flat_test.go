package vectorindex

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize = %v", v)
	}
	zero := Normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector should stay zero, got %v", zero)
	}
}

func TestFlat_SearchOrdersByCosine(t *testing.T) {
	f := NewFlat(2).Append([][]float32{{1, 0}, {0, 1}, {1, 1}})
	hits := f.Search([]float32{10, 0}, 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Slot != 0 || hits[1].Slot != 2 {
		t.Errorf("unexpected order %+v", hits)
	}
	if math.Abs(float64(hits[0].Score)-1) > 1e-6 {
		t.Errorf("expected cosine 1 for identical direction, got %f", hits[0].Score)
	}
}

func TestFlat_SearchKLargerThanLen(t *testing.T) {
	f := NewFlat(2).Append([][]float32{{1, 0}})
	if got := len(f.Search([]float32{1, 0}, 10)); got != 1 {
		t.Errorf("expected min(k,count)=1, got %d", got)
	}
	if got := NewFlat(2).Search([]float32{1, 0}, 5); len(got) != 0 {
		t.Errorf("empty index should return nothing, got %v", got)
	}
}

func TestFlat_AppendDoesNotMutate(t *testing.T) {
	a := NewFlat(2).Append([][]float32{{1, 0}})
	b := a.Append([][]float32{{0, 1}})
	if a.Len() != 1 || b.Len() != 2 {
		t.Errorf("a=%d b=%d", a.Len(), b.Len())
	}
}

func TestFlat_RetainKeepsVectorsInOrder(t *testing.T) {
	f := NewFlat(2).Append([][]float32{{1, 0}, {0, 1}, {-1, 0}})
	r := f.Retain([]int{0, 2})
	if r.Len() != 2 {
		t.Fatalf("expected 2, got %d", r.Len())
	}
	if r.Vector(1)[0] != -1 {
		t.Errorf("slot 1 should hold the old slot 2 vector, got %v", r.Vector(1))
	}
}

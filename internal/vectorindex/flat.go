// Package vectorindex holds per-tenant exact inner-product indexes with
// object-storage checkpoints.
package vectorindex

import (
	"math"
	"sort"
)

// Flat is an exact inner-product index over L2-normalized vectors.
// Vectors are stored contiguously; slot i occupies data[i*dim:(i+1)*dim].
// A Flat is never mutated after it is published; Append and Retain return copies.
type Flat struct {
	dim  int
	data []float32
}

// Hit is one search candidate.
type Hit struct {
	Slot  int
	Score float32
}

// NewFlat creates an empty index of the given width.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Dim returns the vector width.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

// Vector returns a read-only view of slot i.
func (f *Flat) Vector(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim]
}

// Append returns a new index with vecs normalized and appended.
// Callers must check widths first.
func (f *Flat) Append(vecs [][]float32) *Flat {
	data := make([]float32, len(f.data), len(f.data)+len(vecs)*f.dim)
	copy(data, f.data)
	for _, v := range vecs {
		data = append(data, Normalize(v)...)
	}
	return &Flat{dim: f.dim, data: data}
}

// Retain rebuilds a fresh index from the given slots in the given order.
func (f *Flat) Retain(slots []int) *Flat {
	data := make([]float32, 0, len(slots)*f.dim)
	for _, s := range slots {
		data = append(data, f.Vector(s)...)
	}
	return &Flat{dim: f.dim, data: data}
}

// Search scores every vector against the normalized query and returns the
// top k by score descending. Equal scores keep slot order.
func (f *Flat) Search(query []float32, k int) []Hit {
	n := f.Len()
	if k <= 0 || n == 0 {
		return nil
	}
	q := Normalize(query)
	hits := make([]Hit, n)
	for i := range n {
		hits[i] = Hit{Slot: i, Score: dot(q, f.Vector(i))}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k < n {
		hits = hits[:k]
	}
	return hits
}

// Normalize returns a unit-length copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

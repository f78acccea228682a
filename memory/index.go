package memory

import (
	"fmt"
	"math"
	"sort"
)

// VectorIndex stores L2-normalized embedding vectors in insertion order and
// answers exact nearest-neighbor queries by inner product (equivalent to
// cosine similarity for normalized vectors).
//
// Session histories are small (tens to low hundreds of turns), so a linear
// scan is both exact and fast enough. Individual entries cannot be deleted;
// only a full Reset is supported.
//
// VectorIndex is not safe for concurrent use on its own. SessionStore guards
// each index with its session's lock.
type VectorIndex struct {
	dim     int
	vectors [][]float32
}

// NewVectorIndex creates an empty index with a fixed dimension.
func NewVectorIndex(dim int) *VectorIndex {
	return &VectorIndex{dim: dim}
}

// Add appends a vector to the index. The vector is normalized and copied;
// the caller keeps ownership of its slice.
func (ix *VectorIndex) Add(vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	ix.vectors = append(ix.vectors, normalize(vec))
	return nil
}

// Search returns up to k ordinal positions ranked by descending similarity
// to the query vector. k larger than the current count is clamped, not an
// error. An empty index yields an empty result.
func (ix *VectorIndex) Search(query []float32, k int) ([]int, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), ix.dim)
	}
	n := len(ix.vectors)
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	q := normalize(query)
	scores := make([]float32, n)
	for i, v := range ix.vectors {
		scores[i] = dot(q, v)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Ties break toward earlier turns for deterministic output.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	return order[:k], nil
}

// Reset discards all stored vectors. The dimension is retained.
func (ix *VectorIndex) Reset() {
	ix.vectors = nil
}

// Count returns the number of stored vectors.
func (ix *VectorIndex) Count() int {
	return len(ix.vectors)
}

// Dimensions returns the fixed vector dimension of the index.
func (ix *VectorIndex) Dimensions() int {
	return ix.dim
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize returns a unit-length copy of vec. Zero vectors are returned
// as-is (copied) to avoid dividing by zero.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}

	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}

	n := float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		out[i] = v / n
	}
	return out
}

package vectorize

import (
	"math"
	"sort"
)

// SparseVector stores the non-zero entries of a feature vector.
// Indices are strictly increasing.
type SparseVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NewSparseVector builds a vector from an index→value map.
func NewSparseVector(dim int, entries map[int]float64) SparseVector {
	sv := SparseVector{
		Dim:     dim,
		Indices: make([]int, 0, len(entries)),
		Values:  make([]float64, 0, len(entries)),
	}
	for idx := range entries {
		sv.Indices = append(sv.Indices, idx)
	}
	sort.Ints(sv.Indices)
	for _, idx := range sv.Indices {
		sv.Values = append(sv.Values, entries[idx])
	}
	return sv
}

// Len returns the number of stored entries.
func (sv SparseVector) Len() int { return len(sv.Indices) }

// Get returns the value at idx, or 0.
func (sv SparseVector) Get(idx int) float64 {
	i := sort.SearchInts(sv.Indices, idx)
	if i < len(sv.Indices) && sv.Indices[i] == idx {
		return sv.Values[i]
	}
	return 0
}

// Dot computes the dot product with a dense vector of at least Dim entries.
func (sv SparseVector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range sv.Indices {
		if idx < len(dense) {
			sum += sv.Values[i] * dense[idx]
		}
	}
	return sum
}

// L2Norm returns the Euclidean norm.
func (sv SparseVector) L2Norm() float64 {
	var sum float64
	for _, v := range sv.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// ToDense expands the vector.
func (sv SparseVector) ToDense() []float64 {
	dense := make([]float64, sv.Dim)
	for i, idx := range sv.Indices {
		dense[idx] = sv.Values[i]
	}
	return dense
}

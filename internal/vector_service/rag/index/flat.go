package index

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDimensionMismatch is returned when vectors of a different width are
// appended to an existing index.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Match is one nearest-neighbor hit: the row of the matched vector and its
// inner-product score.
type Match struct {
	Row   int
	Score float32
}

// Flat is an exact inner-product index over fixed-dimension float32 vectors.
// Vectors are stored row-major in insertion order; search is a brute-force
// scan, following the flat exact-search baseline. Rows cannot be removed;
// deletion callers rebuild a fresh index from the surviving vectors.
//
// Flat is not safe for concurrent mutation; callers serialize access.
type Flat struct {
	dim  int
	data []float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the fixed vector width of the index.
func (f *Flat) Dimension() int { return f.dim }

// Len returns the number of vectors in the index.
func (f *Flat) Len() int { return len(f.data) / f.dim }

// Add appends vectors in order. The row of the first appended vector is the
// index length before the call.
func (f *Flat) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: index has dimension %d, vector has %d", ErrDimensionMismatch, f.dim, len(v))
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Search returns the k rows with the highest inner product against the
// query, in score-descending order. k is clamped to the index length.
func (f *Flat) Search(query []float32, k int) ([]Match, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: index has dimension %d, query has %d", ErrDimensionMismatch, f.dim, len(query))
	}
	n := f.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	matches := make([]Match, n)
	for row := 0; row < n; row++ {
		matches[row] = Match{Row: row, Score: dot(f.data[row*f.dim:(row+1)*f.dim], query)}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Row < matches[j].Row
	})

	return matches[:k], nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

package index

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

// ErrDimensionMismatch is returned when a vector's dimensionality does not
// match the index. It is a fatal configuration error: callers must not
// coerce or truncate vectors to work around it.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Sentinel values used to pad search results when the index holds fewer
// than k vectors.
const NotFoundID = -1

// FlatIndex is an exact in-process similarity index: brute-force squared
// L2 distance over all stored vectors. It is built once per request and
// read-only afterwards, so no locking is needed.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Build stores the vectors. Every vector must match the configured
// dimension; the id of vector i is i.
func (idx *FlatIndex) Build(_ context.Context, vectors [][]float32) error {
	if idx.dim == 0 && len(vectors) > 0 {
		idx.dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != idx.dim {
			return fmt.Errorf("vector %d has dimension %d, index expects %d: %w",
				i, len(v), idx.dim, ErrDimensionMismatch)
		}
	}
	idx.vectors = vectors
	return nil
}

// Search returns the ids and squared L2 distances of the k nearest
// vectors, ascending by distance. When fewer than k vectors exist the
// result is padded with id -1 and +Inf, so callers always see exactly k
// entries.
func (idx *FlatIndex) Search(_ context.Context, query []float32, k int) ([]int, []float32, error) {
	if len(query) != idx.dim {
		return nil, nil, fmt.Errorf("query has dimension %d, index expects %d: %w",
			len(query), idx.dim, ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil, errors.New("k must be positive")
	}

	distances := make([]float32, len(idx.vectors))
	order := make([]int, len(idx.vectors))
	for i, v := range idx.vectors {
		distances[i] = squaredL2(query, v)
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})

	ids := make([]int, k)
	dists := make([]float32, k)
	for i := 0; i < k; i++ {
		if i < len(order) {
			ids[i] = order[i]
			dists[i] = distances[order[i]]
		} else {
			ids[i] = NotFoundID
			dists[i] = float32(math.Inf(1))
		}
	}

	return ids, dists, nil
}

type flatSnapshot struct {
	Dim     int
	Vectors [][]float32
}

// Save serializes the index to a file.
func (idx *FlatIndex) Save(location string) error {
	f, err := os.Create(location)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(flatSnapshot{Dim: idx.dim, Vectors: idx.vectors}); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	return nil
}

// Load restores an index serialized by Save.
func (idx *FlatIndex) Load(location string) error {
	f, err := os.Open(location)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	var snap flatSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode index: %w", err)
	}
	idx.dim = snap.Dim
	idx.vectors = snap.Vectors
	return nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

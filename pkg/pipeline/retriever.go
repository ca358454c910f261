package pipeline

import (
	"context"

	"github.com/xhad/docqa/internal/models"
	"github.com/xhad/docqa/internal/types"
	"github.com/xhad/docqa/pkg/index"
)

// Retriever resolves nearest-neighbor ids from the vector index back to
// their chunks. Matches come back in the index's distance order; padding
// ids from an underfilled index are dropped rather than surfaced.
type Retriever struct {
	index types.VectorIndex
	store types.ChunkStore
}

func NewRetriever(idx types.VectorIndex, store types.ChunkStore) *Retriever {
	return &Retriever{index: idx, store: store}
}

// Retrieve searches for the k nearest chunks to the query vector.
func (r *Retriever) Retrieve(ctx context.Context, query []float32, k int) ([]models.SearchMatch, error) {
	ids, dists, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	matches := make([]models.SearchMatch, 0, len(ids))
	for i, id := range ids {
		if id == index.NotFoundID {
			continue
		}
		chunks := r.store.GetByIDs([]int{id})
		if len(chunks) == 0 {
			continue
		}
		matches = append(matches, models.SearchMatch{
			Chunk:    chunks[0],
			Distance: dists[i],
		})
	}

	return matches, nil
}

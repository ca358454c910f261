package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/xhad/docqa/internal/models"
)

// ChunkStore maps a chunk's sequence index to the chunk for the lifetime
// of one request. It is built once from the chunk sequence and read-only
// afterwards.
type ChunkStore struct {
	chunks map[int]models.Chunk
}

// New builds a store keyed by each chunk's sequence index.
func New(chunks []models.Chunk) *ChunkStore {
	m := make(map[int]models.Chunk, len(chunks))
	for _, c := range chunks {
		m[c.Index] = c
	}
	return &ChunkStore{chunks: m}
}

// GetByIDs resolves ids to chunks, silently dropping ids that are not in
// the store.
func (s *ChunkStore) GetByIDs(ids []int) []models.Chunk {
	result := make([]models.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			result = append(result, c)
		}
	}
	return result
}

// All returns every chunk in sequence order.
func (s *ChunkStore) All() []models.Chunk {
	result := make([]models.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result
}

func (s *ChunkStore) Len() int {
	return len(s.chunks)
}

// Save writes the store to a JSON file.
func (s *ChunkStore) Save(path string) error {
	data, err := json.Marshal(s.All())
	if err != nil {
		return fmt.Errorf("failed to marshal chunk store: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chunk store: %w", err)
	}
	return nil
}

// Load reads a store written by Save.
func Load(path string) (*ChunkStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk store: %w", err)
	}
	var chunks []models.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk store: %w", err)
	}
	return New(chunks), nil
}

package types

import (
	"context"

	"github.com/xhad/docqa/internal/models"
)

// Core interfaces

// Extractor turns a downloaded file into raw document text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Chunker splits extracted text into retrieval-ready chunks.
type Chunker interface {
	Chunk(text string) ([]models.Chunk, error)
}

// EmbedderClient is the minimal surface shared by the langchaingo model
// clients (ollama, openai, googleai all expose CreateEmbedding).
type EmbedderClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is a similarity index over embedding vectors. Search returns
// exactly k ids and k distances, padded with id -1 and +Inf distance when
// fewer than k vectors exist. Distances are ascending; the exact metric is
// backend-defined.
type VectorIndex interface {
	Build(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]int, []float32, error)
	Save(location string) error
	Load(location string) error
}

// ChunkStore maps a chunk's sequence index to its text for one request.
type ChunkStore interface {
	GetByIDs(ids []int) []models.Chunk
	All() []models.Chunk
	Len() int
}

// Ranker orders chunks by relevance to a question, applying the configured
// relevance floor and count cap.
type Ranker interface {
	Rank(chunks []models.Chunk, question string) ([]models.RankedChunk, error)
}

// AnswerGenerator produces a grounded answer from context chunks. It must
// return the exact refusal phrase when the context does not contain the
// answer.
type AnswerGenerator interface {
	Generate(ctx context.Context, contextChunks []string, question string) (string, error)
}

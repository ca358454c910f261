package llm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type EmbedderConfig struct {
	Provider    Provider
	Model       string
	BaseURL     string
	Concurrency int     // simultaneous in-flight embedding requests
	RateLimit   float64 // requests per second
	OnProgress  func(completed int)
}

// Embedder generates embedding vectors. Batch embedding fans out over a
// bounded worker pool; one chunk's failure never aborts the batch.
type Embedder struct {
	config  EmbedderConfig
	client  embeddingClient
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" && config.Provider == ProviderOllama {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Concurrency == 0 {
		config.Concurrency = 8
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10.0
	}

	client, err := newEmbeddingClient(config.Provider, config.Model, config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	return &Embedder{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// NewEmbedderWithClient wires an existing client in. Used by tests.
func NewEmbedderWithClient(config EmbedderConfig, client embeddingClient) *Embedder {
	if config.Concurrency == 0 {
		config.Concurrency = 8
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10.0
	}
	return &Embedder{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// EmbedQuery embeds a single string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vectors, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding returned no vector")
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts concurrently and returns the successful vectors
// in input order, plus the original index of each. Failed items are
// excluded from the result; the index mapping is preserved for successes.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error) {
	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)

	var mu sync.Mutex
	completed := 0

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return err
			}

			vectors, err := e.client.CreateEmbedding(gctx, []string{text})
			if err != nil || len(vectors) == 0 {
				// Per-item failure: the slot stays nil and is dropped below.
				return nil
			}

			mu.Lock()
			results[i] = vectors[0]
			completed++
			if e.config.OnProgress != nil {
				e.config.OnProgress(completed)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	vectors := make([][]float32, 0, len(texts))
	kept := make([]int, 0, len(texts))
	for i, v := range results {
		if v != nil {
			vectors = append(vectors, v)
			kept = append(kept, i)
		}
	}

	return vectors, kept, nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xhad/docqa/internal/models"
	"github.com/xhad/docqa/internal/types"
	"github.com/xhad/docqa/pkg/config"
	"github.com/xhad/docqa/pkg/downloader"
	"github.com/xhad/docqa/pkg/extractor"
	"github.com/xhad/docqa/pkg/index"
	"github.com/xhad/docqa/pkg/llm"
	"github.com/xhad/docqa/pkg/processor"
	"github.com/xhad/docqa/pkg/ranker"
	"github.com/xhad/docqa/pkg/store"
	"github.com/xhad/docqa/pkg/tokenizer"
)

// ErrNoUsableChunks means chunking and quality filtering left nothing to
// index. It is a terminal state, not a failure: every question gets the
// refusal answer.
var ErrNoUsableChunks = errors.New("document produced no usable chunks")

// Fetcher downloads a document to a local file. The cleanup function
// removes the file and must be called on every exit path.
type Fetcher interface {
	Download(ctx context.Context, docURL string) (string, func(), error)
}

// Embedder generates embedding vectors for chunks and queries.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, []int, error)
}

// Components lets callers swap pipeline stages. Used by tests and by the
// server when it already holds constructed clients.
type Components struct {
	Fetcher   Fetcher
	Extract   func(path string) (string, error)
	Chunker   types.Chunker
	Embedder  Embedder
	Ranker    types.Ranker
	Generator types.AnswerGenerator
	NewIndex  func() (types.VectorIndex, error)
}

// Pipeline wires the full document QA flow: download, extract, chunk,
// embed, index, then per question retrieve, rank and generate.
type Pipeline struct {
	cfg *config.Config
	c   Components
}

// New constructs a pipeline from config, building every stage with the
// configured providers and thresholds.
func New(cfg *config.Config) (*Pipeline, error) {
	tok, err := tokenizer.New(tokenizer.DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}

	fetcher, err := downloader.NewWithConfig(downloader.DownloaderConfig{
		Dir:     cfg.Downloader.Dir,
		Timeout: time.Duration(cfg.Downloader.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize downloader: %w", err)
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:          cfg.Chunking.MaxTokens,
		OverlapTokens:      cfg.Chunking.OverlapTokens,
		MinChunkTokens:     cfg.Chunking.MinChunkTokens,
		MinChunkLength:     cfg.Chunking.MinChunkLength,
		MinSemanticDensity: cfg.Preprocessing.MinSemanticDensity,
		QualityFilter:      cfg.Preprocessing.EnableQualityFiltering == nil || *cfg.Preprocessing.EnableQualityFiltering,
	}, tok)

	embeddingProvider, err := llm.ParseProvider(cfg.Embedding.Provider)
	if err != nil {
		return nil, err
	}
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:    embeddingProvider,
		Model:       cfg.Embedding.Model,
		BaseURL:     cfg.Embedding.BaseURL,
		Concurrency: cfg.Embedding.Concurrency,
		RateLimit:   cfg.Embedding.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	llmProvider, err := llm.ParseProvider(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	gen, err := llm.NewGeneratorWithConfig(llm.GeneratorConfig{
		Provider:    llmProvider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	rnk := ranker.NewWithConfig(ranker.RankerConfig{
		MaxChunks:         cfg.Answer.MaxContextChunks,
		MinRelevance:      cfg.Answer.MinRelevanceThreshold,
		AdvancedFiltering: cfg.Answer.EnableAdvancedFiltering == nil || *cfg.Answer.EnableAdvancedFiltering,
		FallbackToBasic:   cfg.Answer.FallbackToBasic == nil || *cfg.Answer.FallbackToBasic,
	})

	newIndex := func() (types.VectorIndex, error) {
		switch cfg.Index.Backend {
		case "pgvector":
			return index.NewPGVectorIndex(index.PGVectorConfig{
				ConnString: cfg.Index.URL,
				TableName:  cfg.Index.TableName,
				VectorDim:  cfg.Embedding.Dimension,
			})
		default:
			return index.NewFlatIndex(cfg.Embedding.Dimension), nil
		}
	}

	return &Pipeline{
		cfg: cfg,
		c: Components{
			Fetcher:   fetcher,
			Extract:   extractor.Extract,
			Chunker:   proc,
			Embedder:  emb,
			Ranker:    rnk,
			Generator: gen,
			NewIndex:  newIndex,
		},
	}, nil
}

// NewWithComponents builds a pipeline from pre-constructed stages.
func NewWithComponents(cfg *config.Config, c Components) *Pipeline {
	return &Pipeline{cfg: cfg, c: c}
}

// Session holds the per-request index and chunk store. Nothing outlives
// the request unless the pgvector backend is configured.
type Session struct {
	Index types.VectorIndex
	Store types.ChunkStore
}

// Close releases index resources for backends that hold any.
func (s *Session) Close() {
	if closer, ok := s.Index.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Run answers every question in the request against the request's
// document. Answers come back in question order. A document that yields
// no usable chunks is answered with the refusal phrase, not an error.
func (p *Pipeline) Run(ctx context.Context, req models.QARequest) (*models.QAResponse, error) {
	if req.Documents == "" {
		return nil, fmt.Errorf("no document URL provided")
	}

	sess, err := p.ProcessDocument(ctx, req.Documents)
	if errors.Is(err, ErrNoUsableChunks) {
		return refuseAll(len(req.Questions)), nil
	}
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	topK := p.clampTopK(req.TopK)

	answers := make([]string, 0, len(req.Questions))
	for _, question := range req.Questions {
		answer, err := p.Answer(ctx, sess, question, topK)
		if err != nil {
			return nil, fmt.Errorf("failed to answer %q: %w", question, err)
		}
		answers = append(answers, answer)
	}

	return &models.QAResponse{Answers: answers}, nil
}

// ProcessDocument downloads and indexes one document. Chunks whose
// embedding fails are dropped and the survivors renumbered, so index ids
// always resolve in the store. Returns ErrNoUsableChunks when chunking and
// quality filtering leave nothing to index.
func (p *Pipeline) ProcessDocument(ctx context.Context, docURL string) (*Session, error) {
	path, cleanup, err := p.c.Fetcher.Download(ctx, docURL)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	text, err := p.c.Extract(path)
	if err != nil {
		return nil, err
	}

	chunks, err := p.c.Chunker.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("chunking failed: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoUsableChunks
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, kept, err := p.c.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding produced no vectors")
	}
	if dim := p.cfg.Embedding.Dimension; dim > 0 && len(vectors[0]) != dim {
		return nil, fmt.Errorf("embedding returned dimension %d, config expects %d: %w",
			len(vectors[0]), dim, index.ErrDimensionMismatch)
	}

	survivors := make([]models.Chunk, len(kept))
	for i, orig := range kept {
		c := chunks[orig]
		c.Index = i
		survivors[i] = c
	}

	idx, err := p.c.NewIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	if err := idx.Build(ctx, vectors); err != nil {
		if closer, ok := idx.(interface{ Close() }); ok {
			closer.Close()
		}
		return nil, fmt.Errorf("index build failed: %w", err)
	}

	return &Session{
		Index: idx,
		Store: store.New(survivors),
	}, nil
}

// Answer embeds the question, retrieves the topK nearest chunks, ranks
// them lexically and generates a grounded answer. When ranking leaves no
// context the refusal phrase is returned without calling the model.
func (p *Pipeline) Answer(ctx context.Context, sess *Session, question string, topK int) (string, error) {
	queryVec, err := p.c.Embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", fmt.Errorf("query embedding failed: %w", err)
	}

	retriever := NewRetriever(sess.Index, sess.Store)
	matches, err := retriever.Retrieve(ctx, queryVec, topK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}

	candidates := make([]models.Chunk, len(matches))
	for i, m := range matches {
		candidates[i] = m.Chunk
	}

	ranked, err := p.c.Ranker.Rank(candidates, question)
	if err != nil {
		return "", fmt.Errorf("ranking failed: %w", err)
	}

	if len(ranked) == 0 {
		return llm.NoContextAnswer, nil
	}

	contextChunks := make([]string, len(ranked))
	for i, rc := range ranked {
		contextChunks[i] = rc.Chunk.Text
	}

	return p.c.Generator.Generate(ctx, contextChunks, question)
}

// refuseAll answers n questions with the refusal phrase.
func refuseAll(n int) *models.QAResponse {
	answers := make([]string, n)
	for i := range answers {
		answers[i] = llm.NoContextAnswer
	}
	return &models.QAResponse{Answers: answers}
}

func (p *Pipeline) clampTopK(topK int) int {
	if topK <= 0 {
		topK = p.cfg.Retrieval.DefaultTopK
	}
	if topK > p.cfg.Retrieval.MaxTopK {
		topK = p.cfg.Retrieval.MaxTopK
	}
	return topK
}

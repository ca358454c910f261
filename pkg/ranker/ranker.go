package ranker

import (
	"fmt"
	"sort"

	"github.com/xhad/docqa/internal/models"
	"github.com/xhad/docqa/pkg/textproc"
)

type RankerConfig struct {
	MaxChunks         int
	MinRelevance      float64
	AdvancedFiltering bool
	FallbackToBasic   bool
}

// Scorer scores one chunk against a question. The advanced implementation
// runs the quality classifier's cleaning step first; if it fails the ranker
// falls back to plain lexical scoring when configured to.
type Scorer interface {
	Score(chunk models.Chunk, question string) (float64, error)
}

// Ranker orders chunks by lexical relevance to a question, drops chunks
// below the relevance floor, and caps the result count. Ties keep their
// original relative order.
type Ranker struct {
	config     RankerConfig
	classifier *textproc.Classifier
	advanced   Scorer
}

func NewWithConfig(config RankerConfig) *Ranker {
	if config.MaxChunks == 0 {
		config.MaxChunks = 3
	}

	classifier := textproc.NewClassifier()
	return &Ranker{
		config:     config,
		classifier: classifier,
		advanced:   &cleaningScorer{classifier: classifier},
	}
}

// WithScorer swaps the advanced scorer. Used by tests to exercise the
// fallback path.
func (r *Ranker) WithScorer(s Scorer) *Ranker {
	r.advanced = s
	return r
}

// Relevance is the Jaccard similarity between the stop-word-filtered word
// sets of the question and the chunk. Returns 0 when the question has no
// content words.
func (r *Ranker) Relevance(question, chunk string) float64 {
	questionWords := wordSet(r.classifier.ContentWords(question))
	if len(questionWords) == 0 {
		return 0.0
	}
	chunkWords := wordSet(r.classifier.ContentWords(chunk))
	if len(chunkWords) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range questionWords {
		if chunkWords[w] {
			intersection++
		}
	}
	union := len(questionWords) + len(chunkWords) - intersection

	return float64(intersection) / float64(union)
}

// Rank scores every chunk, sorts best-first (stable), applies the relevance
// floor, and truncates to the configured cap.
func (r *Ranker) Rank(chunks []models.Chunk, question string) ([]models.RankedChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	ranked := make([]models.RankedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score, err := r.score(chunk, question)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, models.RankedChunk{Chunk: chunk, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	result := make([]models.RankedChunk, 0, r.config.MaxChunks)
	for _, rc := range ranked {
		if rc.Score < r.config.MinRelevance {
			break
		}
		result = append(result, rc)
		if len(result) == r.config.MaxChunks {
			break
		}
	}

	return result, nil
}

func (r *Ranker) score(chunk models.Chunk, question string) (float64, error) {
	if !r.config.AdvancedFiltering {
		return r.Relevance(question, chunk.Text), nil
	}

	score, err := r.advanced.Score(chunk, question)
	if err != nil {
		if !r.config.FallbackToBasic {
			return 0, fmt.Errorf("advanced filtering failed: %w", err)
		}
		return r.Relevance(question, chunk.Text), nil
	}
	return score, nil
}

// cleaningScorer cleans the chunk through the quality classifier before
// scoring, so OCR damage does not depress lexical overlap.
type cleaningScorer struct {
	classifier *textproc.Classifier
}

func (s *cleaningScorer) Score(chunk models.Chunk, question string) (float64, error) {
	cleaned := s.classifier.Clean(chunk.Text)
	if cleaned == "" {
		return 0.0, nil
	}

	questionWords := wordSet(s.classifier.ContentWords(question))
	if len(questionWords) == 0 {
		return 0.0, nil
	}
	chunkWords := wordSet(s.classifier.ContentWords(cleaned))
	if len(chunkWords) == 0 {
		return 0.0, nil
	}

	intersection := 0
	for w := range questionWords {
		if chunkWords[w] {
			intersection++
		}
	}
	union := len(questionWords) + len(chunkWords) - intersection

	return float64(intersection) / float64(union), nil
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

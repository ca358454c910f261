package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validProviders = map[string]bool{
	"ollama":   true,
	"openai":   true,
	"googleai": true,
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if !validProviders[c.LLM.Provider] {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid base URL",
		})
	}

	// Validate embedding config
	if !validProviders[c.Embedding.Provider] {
		errors = append(errors, ValidationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.Embedding.Provider),
		})
	}

	if c.Embedding.Dimension < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.dimension",
			Message: "dimension must be positive",
		})
	}

	if c.Embedding.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Embedding.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate chunking config
	if c.Chunking.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunking.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		errors = append(errors, ValidationError{
			Field:   "chunking.overlap_tokens",
			Message: "overlap_tokens must be non-negative and less than max_tokens",
		})
	}

	// Validate preprocessing config
	if c.Preprocessing.MinSemanticDensity < 0 || c.Preprocessing.MinSemanticDensity > 1 {
		errors = append(errors, ValidationError{
			Field:   "preprocessing.min_semantic_density",
			Message: "min_semantic_density must be between 0 and 1",
		})
	}

	// Validate answer config
	if c.Answer.MaxContextChunks < 1 {
		errors = append(errors, ValidationError{
			Field:   "answer.max_context_chunks",
			Message: "max_context_chunks must be positive",
		})
	}

	if c.Answer.MinRelevanceThreshold < 0 || c.Answer.MinRelevanceThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "answer.min_relevance_threshold",
			Message: "min_relevance_threshold must be between 0 and 1",
		})
	}

	// Validate retrieval config
	if c.Retrieval.DefaultTopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.default_top_k",
			Message: "default_top_k must be positive",
		})
	}

	if c.Retrieval.MaxTopK < c.Retrieval.DefaultTopK {
		errors = append(errors, ValidationError{
			Field:   "retrieval.max_top_k",
			Message: "max_top_k must be at least default_top_k",
		})
	}

	// Validate index config
	if c.Index.Backend != "flat" && c.Index.Backend != "pgvector" {
		errors = append(errors, ValidationError{
			Field:   "index.backend",
			Message: fmt.Sprintf("unknown backend: %s", c.Index.Backend),
		})
	}

	if c.Index.Backend == "pgvector" {
		if c.Index.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "index.url",
				Message: "database URL is required for the pgvector backend",
			})
		} else if _, err := url.Parse(c.Index.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "index.url",
				Message: "invalid database URL",
			})
		}
	}

	return errors
}

package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is compatible with the OpenAI embedding models the
// pipeline targets by default.
const DefaultEncoding = "cl100k_base"

// Tokenizer wraps a tiktoken encoder. It is the single token-counting
// authority for chunking and quality filtering.
type Tokenizer struct {
	encoder *tiktoken.Tiktoken
}

// New returns a tokenizer for the given tiktoken encoding name.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoder: %w", err)
	}
	return &Tokenizer{encoder: encoder}, nil
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	return len(t.encoder.Encode(text, nil, nil))
}

// Encode tokenizes text into token ids.
func (t *Tokenizer) Encode(text string) []int {
	return t.encoder.Encode(text, nil, nil)
}

// Decode converts token ids back to text.
func (t *Tokenizer) Decode(tokens []int) string {
	return t.encoder.Decode(tokens)
}

// TrimToTokenLimit truncates text so it fits within maxTokens, cutting at a
// token boundary.
func (t *Tokenizer) TrimToTokenLimit(text string, maxTokens int) string {
	tokens := t.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.encoder.Decode(tokens[:maxTokens])
}

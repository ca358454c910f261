package processor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docqa/pkg/processor"
	"github.com/xhad/docqa/pkg/tokenizer"
)

func newTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	tok, err := tokenizer.New(tokenizer.DefaultEncoding)
	require.NoError(t, err)
	return tok
}

// sentenceText builds a paragraph of distinct short sentences until it
// spans at least minTokens tokens.
func sentenceText(tok *tokenizer.Tokenizer, minTokens int, topic string) string {
	var b strings.Builder
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "theta", "kappa"}
	for i := 0; tok.Count(b.String()) < minTokens; i++ {
		b.WriteString("The ")
		b.WriteString(topic)
		b.WriteString(" section covers ")
		b.WriteString(words[i%len(words)])
		b.WriteString(" material in considerable detail. ")
	}
	return strings.TrimSpace(b.String())
}

func TestChunkTokenBound(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:     60,
		OverlapTokens: 10,
	}, tok)

	text := sentenceText(tok, 300, "storage")

	chunks, err := p.Chunk(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.LessOrEqual(t, c.Tokens, 60, "chunk %d exceeds token bound", c.Index)
		assert.Equal(t, tok.Count(c.Text), c.Tokens)
	}
}

func TestChunkOversizedSentence(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:     20,
		OverlapTokens: 5,
	}, tok)

	// One long sentence with no boundary: it must survive whole, in a
	// single chunk over the limit, rather than being truncated.
	sentence := "a" + strings.Repeat(" word", 60)
	chunks, err := p.Chunk(sentence)
	require.NoError(t, err)

	found := false
	for _, c := range chunks {
		if c.Tokens > 20 {
			found = true
		}
	}
	assert.True(t, found, "oversized sentence should produce one oversized chunk")
}

func TestChunkOrderPreserved(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:     50,
		OverlapTokens: 10,
	}, tok)

	text := strings.Join([]string{
		sentenceText(tok, 80, "first"),
		sentenceText(tok, 80, "second"),
		sentenceText(tok, 80, "third"),
	}, "\n\n")

	chunks, err := p.Chunk(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Indexes are sequential from zero.
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}

	// The first chunk mentioning a topic never comes after the first chunk
	// mentioning a later topic.
	first := func(topic string) int {
		for i, c := range chunks {
			if strings.Contains(c.Text, topic) {
				return i
			}
		}
		return -1
	}
	assert.LessOrEqual(t, first("first"), first("second"))
	assert.LessOrEqual(t, first("second"), first("third"))
}

func TestChunkOverlap(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:     30,
		OverlapTokens: 8,
	}, tok)

	// Distinct short paragraphs so the carried tail is identifiable.
	words := []string{
		"amber", "birch", "cedar", "ember", "fjord", "grove", "heath",
		"ivory", "kelp", "lotus", "maple", "nectar", "onyx", "pearl",
		"quartz", "raven", "slate", "tundra", "umber", "willow",
	}
	var parts []string
	for _, w := range words {
		parts = append(parts, "This segment explains "+w+" processing.")
	}
	text := strings.Join(parts, "\n\n")

	chunks, err := p.Chunk(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share trailing context: the last words of one
	// chunk reappear at the start of the next.
	for i := 0; i < len(chunks)-1; i++ {
		fields := strings.Fields(chunks[i].Text)
		require.NotEmpty(t, fields)
		tail := strings.Join(fields[len(fields)-2:], " ")
		assert.Contains(t, chunks[i+1].Text, tail,
			"chunk %d should carry overlap from chunk %d", i+1, i)
	}

	// The carried seed counts against the limit, so every chunk stays
	// within it even with overlap included.
	for _, c := range chunks {
		assert.LessOrEqual(t, c.Tokens, 30)
	}
}

func TestChunkQualityFilter(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:     400,
		OverlapTokens: 50,
		QualityFilter: true,
	}, tok)

	// A document of pure extraction noise yields nothing.
	chunks, err := p.Chunk("Page 42\n\n12345\n\n-- -- --")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Real content survives the same filter.
	chunks, err = p.Chunk(sentenceText(tok, 60, "quality"))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Text, "quality")
}

func TestChunkFiltersShortChunks(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:      400,
		OverlapTokens:  50,
		MinChunkTokens: 20,
		MinChunkLength: 30,
		QualityFilter:  true,
	}, tok)

	chunks, err := p.Chunk("Tiny fragment of text here.")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkMixedParagraphSizes(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:     400,
		OverlapTokens: 50,
	}, tok)

	// A fitting paragraph, one too large for a single chunk, and a short
	// trailing one.
	text := strings.Join([]string{
		sentenceText(tok, 300, "intro"),
		sentenceText(tok, 450, "body"),
		sentenceText(tok, 50, "closing"),
	}, "\n\n")

	chunks, err := p.Chunk(text)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for _, c := range chunks {
		assert.LessOrEqual(t, c.Tokens, 400)
	}

	// All three sections survive, in source order.
	joined := ""
	for _, c := range chunks {
		joined += c.Text + " "
	}
	assert.Contains(t, joined, "intro")
	assert.Contains(t, joined, "body")
	assert.Contains(t, joined, "closing")
	assert.Less(t, strings.Index(joined, "intro"), strings.Index(joined, "body"))
	assert.Less(t, strings.Index(joined, "body"), strings.Index(joined, "closing"))
}

func TestChunkDeterministic(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokens:     50,
		OverlapTokens: 10,
		QualityFilter: true,
	}, tok)

	text := sentenceText(tok, 250, "repeat")

	first, err := p.Chunk(text)
	require.NoError(t, err)
	second, err := p.Chunk(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunkEmptyInput(t *testing.T) {
	tok := newTokenizer(t)
	p := processor.NewWithConfig(processor.ProcessorConfig{}, tok)

	chunks, err := p.Chunk("")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = p.Chunk("   \n\n   \n\n  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

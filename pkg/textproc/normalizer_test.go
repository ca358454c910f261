package textproc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/docqa/pkg/textproc"
)

func TestNormalize(t *testing.T) {
	n := textproc.NewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses spaces and tabs",
			input:    "too   many\t\tspaces",
			expected: "too many spaces",
		},
		{
			name:     "keeps paragraph breaks",
			input:    "first paragraph\n\n\n\n\nsecond paragraph",
			expected: "first paragraph\n\nsecond paragraph",
		},
		{
			name:     "repairs glued case boundary",
			input:    "helloWorld",
			expected: "hello World",
		},
		{
			name:     "repairs missing space after period",
			input:    "sentence ends.Next begins",
			expected: "sentence ends. Next begins",
		},
		{
			name:     "separates letters and digits",
			input:    "chapter7 has 7pages",
			expected: "chapter 7 has 7 pages",
		},
		{
			name:     "limits punctuation runs",
			input:    "wait......... done----------",
			expected: "wait... done---",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "   padded   ",
			expected: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := textproc.NewNormalizer()

	inputs := []string{
		"plain text with   extra spaces",
		"glued.Sentences andWords like chapter7",
		"first\n\n\n\nsecond\n\nthird",
		"café résumé naïve",
		"mixed \t whitespace\n\n\n and....... runs",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		assert.Equal(t, once, twice, "normalizing twice changed: %q", input)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	n := textproc.NewNormalizer()

	assert.Equal(t, "a b", n.CollapseWhitespace("a \t  b"))
	assert.Equal(t, "a\n\nb", n.CollapseWhitespace("a\n\n\n\nb"))
}

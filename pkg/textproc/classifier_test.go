package textproc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/docqa/pkg/textproc"
)

func TestIsNoise(t *testing.T) {
	c := textproc.NewClassifier()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"just a number", "12345", true},
		{"all caps header", "ALL CAPS HEADER", true},
		{"page number line", "Page 42", true},
		{"normal sentence", "This is a normal sentence with real words.", false},
		{"too short", "short", true},
		{"only special characters", "!@#$%^&*()!@#$%^&*()", true},
		{"numbers and punctuation", "123-456. 789, 012-345.", true},
		{"mostly symbols", "=== ## 12 +++ %% 34 &&&", true},
		{"technical content", "The API returns a JSON object with nested fields.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.IsNoise(tt.input), "input: %q", tt.input)
		})
	}
}

func TestClean(t *testing.T) {
	c := textproc.NewClassifier()

	assert.Equal(t, "", c.Clean(""))
	assert.Equal(t, "", c.Clean("   \t\n  "))
	assert.Equal(t, "", c.Clean("Page 42"))
	assert.Equal(t, "", c.Clean("1234567890 1234567890"))

	cleaned := c.Clean("A perfectly   reasonable sentence about databases.")
	assert.Equal(t, "A perfectly reasonable sentence about databases.", cleaned)

	// Repair runs after the noise check, so glued words come back fixed.
	assert.Equal(t, "broken Extraction of real content here",
		c.Clean("brokenExtraction of real content here"))
}

func TestContentWords(t *testing.T) {
	c := textproc.NewClassifier()

	words := c.ContentWords("The quick brown fox is on the hill")
	assert.Equal(t, []string{"quick", "brown", "fox", "hill"}, words)

	// Stop words and short words disappear entirely.
	assert.Empty(t, c.ContentWords("the a an is are to of"))
	assert.Empty(t, c.ContentWords("it we a b cd"))

	// Case is folded before filtering.
	assert.Equal(t, []string{"database", "index"}, c.ContentWords("Database INDEX"))
}

func TestDensity(t *testing.T) {
	c := textproc.NewClassifier()

	// No content words at all scores zero.
	assert.Equal(t, 0.0, c.Density("the a an is"))
	assert.Equal(t, 0.0, c.Density(""))

	// All-unique vocabulary scores near the top of the range.
	high := c.Density("quantum entanglement describes correlated particle states")
	assert.Greater(t, high, 0.8)
	assert.LessOrEqual(t, high, 1.0)

	// Heavy repetition drags the score down.
	low := c.Density("word word word word word word word word word word")
	assert.Less(t, low, high)

	// Score is always clamped to [0, 1].
	for _, text := range []string{
		"extraordinarily comprehensive documentation",
		"cat dog cat dog",
		"one two three four five six seven",
	} {
		d := c.Density(text)
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, 1.0)
	}
}

func TestKeyPhrases(t *testing.T) {
	c := textproc.NewClassifier()

	phrases := c.KeyPhrases("Delegates from United Nations arrived in Geneva to discuss policy.")
	assert.True(t, phrases["United Nations"])
	assert.True(t, phrases["Geneva"])
	assert.False(t, phrases["policy"])
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, textproc.IsStopWord("the"))
	assert.True(t, textproc.IsStopWord("would"))
	assert.False(t, textproc.IsStopWord("database"))
}

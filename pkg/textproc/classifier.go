package textproc

import (
	"regexp"
	"strings"
)

// Classifier decides whether a span of text is noise or signal and scores
// its semantic density. It shares one stop-word set with the relevance
// ranker so both judge "content words" the same way.
type Classifier struct {
	normalizer *Normalizer
}

func NewClassifier() *Classifier {
	return &Classifier{normalizer: NewNormalizer()}
}

// Patterns that mark a whole span as low-quality extraction noise.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[^a-zA-Z0-9]*$`),        // only special characters
	regexp.MustCompile(`^[\d\s\-\.\,]{10,}$`),    // numbers and basic punctuation
	regexp.MustCompile(`^[A-Z\s]{5,}$`),          // shouty headings/artifacts
	regexp.MustCompile(`(?i)^\s*Page\s+\d+\s*$`), // lone page number line
	regexp.MustCompile(`^\s*\d+\s*$`),            // just a number
	regexp.MustCompile(`^[^\w\s]{3,}$`),          // consecutive special chars
}

var (
	wordPattern  = regexp.MustCompile(`\b\w+\b`)
	alphaPattern = regexp.MustCompile(`[a-zA-Z]`)

	// Key phrases: runs of 2-3 capitalized words, plus standalone
	// capitalized words longer than 4 letters.
	multiWordPhrase  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b`)
	singleWordPhrase = regexp.MustCompile(`\b[A-Z][a-z]{4,}\b`)
)

// stopWords is used by both density scoring and the relevance ranker.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "may": true, "might": true,
	"must": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "i": true, "you": true, "he": true, "she": true,
	"it": true, "we": true, "they": true, "me": true, "him": true,
	"her": true, "us": true, "them": true,
}

// IsStopWord reports whether w belongs to the shared stop-word set.
func IsStopWord(w string) bool {
	return stopWords[w]
}

// IsNoise reports whether the span is likely extraction noise rather than
// document content.
func (c *Classifier) IsNoise(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 15 {
		return true
	}

	for _, pattern := range noisePatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}

	// Character composition: too few letters relative to non-space chars.
	alphaChars := len(alphaPattern.FindAllString(text, -1))
	totalChars := len(strings.ReplaceAll(text, " ", ""))
	if totalChars > 0 && float64(alphaChars)/float64(totalChars) < 0.3 {
		return true
	}

	return false
}

// Clean normalizes a span and returns the repaired text, or an empty string
// if the span is empty or classified as noise.
func (c *Classifier) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = c.normalizer.NormalizeUnicode(text)
	text = c.normalizer.CollapseWhitespace(text)

	if c.IsNoise(text) {
		return ""
	}

	return c.normalizer.RepairArtifacts(text)
}

// ContentWords lowercases text, tokenizes it into words, and drops stop
// words and words of one or two characters.
func (c *Classifier) ContentWords(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	content := make([]string, 0, len(words))
	for _, w := range words {
		if !stopWords[w] && len(w) > 2 {
			content = append(content, w)
		}
	}
	return content
}

// Density estimates how information-dense a span is: the unique ratio of
// its content words plus a bonus for longer (more specific) vocabulary,
// clamped to [0,1].
func (c *Classifier) Density(text string) float64 {
	content := c.ContentWords(text)
	if len(content) == 0 {
		return 0.0
	}

	unique := make(map[string]bool, len(content))
	totalLen := 0
	for _, w := range content {
		unique[w] = true
		totalLen += len(w)
	}

	density := float64(len(unique)) / float64(len(content))

	avgWordLength := float64(totalLen) / float64(len(content))
	lengthBonus := avgWordLength / 8.0
	if lengthBonus > 1.0 {
		lengthBonus = 1.0
	}

	score := density + lengthBonus*0.2
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// KeyPhrases extracts capitalized word sequences as a supporting relevance
// signal.
func (c *Classifier) KeyPhrases(text string) map[string]bool {
	phrases := make(map[string]bool)
	for _, p := range multiWordPhrase.FindAllString(text, -1) {
		phrases[p] = true
	}
	for _, p := range singleWordPhrase.FindAllString(text, -1) {
		phrases[p] = true
	}
	return phrases
}

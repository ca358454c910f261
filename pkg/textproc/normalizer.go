package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer cleans up extracted document text: unicode normalization,
// whitespace collapsing, and repairs for common PDF/OCR extraction
// artifacts. Normalize is pure and idempotent.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

var (
	horizontalWS  = regexp.MustCompile(`[ \t]+`)
	excessNewline = regexp.MustCompile(`\n{3,}`)

	// Missing-space heuristics for text mangled by PDF extraction.
	lowerThenUpper  = regexp.MustCompile(`([a-z])([A-Z])`)
	periodThenUpper = regexp.MustCompile(`\.([A-Z])`)
	letterThenDigit = regexp.MustCompile(`([a-z])([0-9])`)
	digitThenLetter = regexp.MustCompile(`([0-9])([a-z])`)

	dotRun  = regexp.MustCompile(`\.{3,}`)
	dashRun = regexp.MustCompile(`-{3,}`)
)

// Normalize applies the full cleanup: NFKD, whitespace collapsing, artifact
// repair. normalize(normalize(x)) == normalize(x).
func (n *Normalizer) Normalize(text string) string {
	text = n.NormalizeUnicode(text)
	text = n.CollapseWhitespace(text)
	text = n.RepairArtifacts(text)
	return text
}

// NormalizeUnicode applies compatibility decomposition so visually
// equivalent code points compare equal.
func (n *Normalizer) NormalizeUnicode(text string) string {
	return norm.NFKD.String(text)
}

// CollapseWhitespace squeezes runs of spaces and tabs to one space and runs
// of 3+ newlines to exactly two, keeping paragraph breaks intact.
func (n *Normalizer) CollapseWhitespace(text string) string {
	text = horizontalWS.ReplaceAllString(text, " ")
	text = excessNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// RepairArtifacts fixes common extraction damage: words glued together at
// case or letter/digit boundaries, missing spaces after sentence periods,
// and runaway punctuation.
func (n *Normalizer) RepairArtifacts(text string) string {
	text = lowerThenUpper.ReplaceAllString(text, "${1} ${2}")
	text = periodThenUpper.ReplaceAllString(text, ". ${1}")
	text = letterThenDigit.ReplaceAllString(text, "${1} ${2}")
	text = digitThenLetter.ReplaceAllString(text, "${1} ${2}")
	text = dotRun.ReplaceAllString(text, "...")
	text = dashRun.ReplaceAllString(text, "---")
	return strings.TrimSpace(text)
}

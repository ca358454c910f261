package processor

import (
	"strings"
	"unicode"

	"github.com/xhad/docqa/internal/models"
	"github.com/xhad/docqa/pkg/textproc"
	"github.com/xhad/docqa/pkg/tokenizer"
)

type ProcessorConfig struct {
	MaxTokens          int
	OverlapTokens      int
	MinChunkTokens     int
	MinChunkLength     int
	MinSemanticDensity float64
	QualityFilter      bool
}

// Processor turns raw extracted text into token-bounded, overlapping chunks
// whose boundaries align to paragraphs and sentences. Given the same text
// and config the output is exactly reproducible.
type Processor struct {
	config     ProcessorConfig
	tok        *tokenizer.Tokenizer
	normalizer *textproc.Normalizer
	classifier *textproc.Classifier
}

func NewWithConfig(config ProcessorConfig, tok *tokenizer.Tokenizer) *Processor {
	if config.MaxTokens == 0 {
		config.MaxTokens = 400
	}
	if config.OverlapTokens == 0 {
		config.OverlapTokens = 50
	}
	if config.MinChunkTokens == 0 {
		config.MinChunkTokens = 20
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 30
	}
	if config.MinSemanticDensity == 0 {
		config.MinSemanticDensity = 0.2
	}

	return &Processor{
		config:     config,
		tok:        tok,
		normalizer: textproc.NewNormalizer(),
		classifier: textproc.NewClassifier(),
	}
}

// Chunk splits text into quality-filtered chunks in source order.
func (p *Processor) Chunk(text string) ([]models.Chunk, error) {
	normalized := p.normalizer.Normalize(text)

	segments := p.splitSegments(normalized)
	texts := p.assembleChunks(segments)

	if p.config.QualityFilter {
		texts = p.filterChunks(texts)
	}

	chunks := make([]models.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = models.Chunk{
			Text:   t,
			Tokens: p.tok.Count(t),
			Index:  i,
		}
	}
	return chunks, nil
}

// splitSegments splits normalized text at semantic boundaries. Paragraphs
// that fit within MaxTokens stay whole; longer ones are packed greedily
// from their sentences. A single sentence over the limit becomes its own
// oversized segment rather than being truncated mid-word.
func (p *Processor) splitSegments(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var segments []string
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if p.tok.Count(paragraph) <= p.config.MaxTokens {
			segments = append(segments, paragraph)
			continue
		}

		var current string
		for _, sentence := range splitSentences(paragraph) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}

			candidate := sentence
			if current != "" {
				candidate = current + " " + sentence
			}

			if p.tok.Count(candidate) <= p.config.MaxTokens {
				current = candidate
			} else {
				if current != "" {
					segments = append(segments, current)
				}
				current = sentence
			}
		}
		if current != "" {
			segments = append(segments, current)
		}
	}

	return segments
}

// assembleChunks packs segments into a running token buffer. When a segment
// would push the buffer past MaxTokens, the buffer is closed as a chunk and
// the next buffer is seeded with up to its trailing OverlapTokens tokens so
// consecutive chunks share context. The seed shrinks when the incoming
// segment nearly fills the limit. An oversized segment still goes into one
// chunk; content is never dropped to satisfy the limit.
func (p *Processor) assembleChunks(segments []string) []string {
	if len(segments) == 0 {
		return nil
	}

	spaceTokens := p.tok.Encode(" ")

	var chunks []string
	var buffer []int

	for _, segment := range segments {
		segmentTokens := p.tok.Encode(segment)

		if len(buffer)+len(segmentTokens) > p.config.MaxTokens {
			if len(buffer) > 0 {
				chunks = append(chunks, p.tok.Decode(buffer))

				carry := p.config.OverlapTokens
				if len(buffer) < carry {
					// A closed chunk shorter than the overlap carries over whole.
					carry = len(buffer)
				}
				if room := p.config.MaxTokens - len(segmentTokens) - len(spaceTokens); carry > room {
					// Trim the seed so the next chunk stays within the token
					// limit; only an oversized segment may exceed it.
					carry = room
				}
				if carry > 0 {
					tail := buffer[len(buffer)-carry:]
					buffer = append([]int(nil), tail...)
					buffer = append(buffer, spaceTokens...)
				} else {
					buffer = nil
				}
			}
			buffer = append(buffer, segmentTokens...)
		} else {
			if len(buffer) > 0 {
				buffer = append(buffer, spaceTokens...)
			}
			buffer = append(buffer, segmentTokens...)
		}
	}

	if len(buffer) > 0 {
		chunks = append(chunks, p.tok.Decode(buffer))
	}

	return chunks
}

// filterChunks drops chunks that clean to empty, fall below the semantic
// density floor, or are too short to be meaningful.
func (p *Processor) filterChunks(texts []string) []string {
	var quality []string
	for _, text := range texts {
		cleaned := p.classifier.Clean(text)
		if cleaned == "" {
			continue
		}
		if p.classifier.Density(cleaned) < p.config.MinSemanticDensity {
			continue
		}
		if len(cleaned) < p.config.MinChunkLength {
			continue
		}
		if p.tok.Count(cleaned) < p.config.MinChunkTokens {
			continue
		}
		quality = append(quality, cleaned)
	}
	return quality
}

// abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
	"fig": true, "no": true, "e.g": true, "i.e": true, "al": true,
}

// splitSentences splits a paragraph at '.', '!' or '?' followed by
// whitespace, skipping boundaries right after common abbreviations.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && abbreviations[trailingWord(runes[start:i])] {
			continue
		}

		sentences = append(sentences, string(runes[start:i+1]))
		start = i + 1
	}

	if start < len(runes) {
		tail := strings.TrimSpace(string(runes[start:]))
		if tail != "" {
			sentences = append(sentences, tail)
		}
	}

	return sentences
}

// trailingWord returns the lowercased word immediately before a candidate
// sentence boundary, keeping interior periods so "e.g" survives.
func trailingWord(runes []rune) string {
	end := len(runes)
	start := end
	for start > 0 {
		r := runes[start-1]
		if unicode.IsLetter(r) || r == '.' {
			start--
			continue
		}
		break
	}
	return strings.ToLower(strings.TrimSuffix(string(runes[start:end]), "."))
}

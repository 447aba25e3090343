package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"rag-assistant/internal/models"
)

var paragraphRe = regexp.MustCompile(models.ParagraphSeparator)

// Chunk splits text into retrievable units under the given strategy.
func Chunk(text string, strategy models.Strategy) ([]string, error) {
	switch strategy {
	case models.StrategySimple:
		return chunkContent(text, models.SimpleChunkSize, models.SimpleChunkOverlap), nil
	case models.StrategyParagraph:
		return chunkParagraphs(text), nil
	default:
		return nil, fmt.Errorf("%w: invalid chunking strategy %q", models.ErrInvalidArgument, strategy)
	}
}

// chunkContent cuts content into windows of maxChars runes, each starting
// maxChars-overlapChars after the previous one. Windows are not trimmed so
// that dropping the overlap from every chunk but the first rebuilds content;
// windows holding only whitespace are skipped.
func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(content)
	stride := maxChars - overlapChars

	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := min(start+maxChars, len(runes))
		window := string(runes[start:end])
		if strings.TrimSpace(window) == "" {
			continue
		}
		chunks = append(chunks, window)
	}
	return chunks
}

// chunkParagraphs returns trimmed blank-line separated blocks, skipping
// blocks with no visible text.
func chunkParagraphs(content string) []string {
	var chunks []string
	for _, block := range paragraphRe.Split(content, -1) {
		if block = strings.TrimSpace(block); block != "" {
			chunks = append(chunks, block)
		}
	}
	return chunks
}

// Reassemble rebuilds the source text of SIMPLE chunks by dropping the
// overlap carried at the head of every chunk after the first. The result is
// exact when no whitespace-only window was skipped.
func Reassemble(chunks []string, overlapChars int) string {
	var content strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk)
		if i > 0 {
			runes = runes[min(overlapChars, len(runes)):]
		}
		content.WriteString(string(runes))
	}
	return content.String()
}

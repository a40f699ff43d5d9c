package chunker

import (
	"regexp"
	"strings"

	"ragscholar/internal/domain"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	// overlap >= window would never advance
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	content := Clean(document.Content)
	if content == "" {
		return nil, nil
	}
	var sentences []string
	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(content, -1) {
		sentences = append(sentences, strings.TrimSpace(content[loc[0]:loc[1]]))
		last = loc[1]
	}
	// text after the final terminator is its own sentence
	if tail := strings.TrimSpace(content[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	var chunks []domain.Chunk
	i := 0
	for i < len(sentences) {
		end := min(i+c.sentencesPerChunk, len(sentences))
		text := strings.TrimSpace(strings.Join(sentences[i:end], " "))
		if text != "" {
			chunks = append(chunks, domain.Chunk{Text: text, Source: document.Name})
		}
		if end == len(sentences) {
			break
		}
		i = max(end-c.overlapSentences, 0)
	}
	return chunks, nil
}

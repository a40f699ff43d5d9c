package chunker

import (
	"strings"

	"ragscholar/internal/domain"
)

// DefaultChunkSize is the number of words per chunk when none is configured.
const DefaultChunkSize = 500

// WordChunker splits cleaned text into consecutive, non-overlapping windows
// of at most size words.
type WordChunker struct {
	size int
}

func NewWordChunker(size int) *WordChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &WordChunker{size: size}
}

// Size returns the configured chunk size in words.
func (c *WordChunker) Size() int { return c.size }

func (c *WordChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	words := strings.Fields(Clean(document.Content))
	if len(words) == 0 {
		return nil, nil
	}
	chunks := make([]domain.Chunk, 0, (len(words)+c.size-1)/c.size)
	for start := 0; start < len(words); start += c.size {
		end := min(start+c.size, len(words))
		chunks = append(chunks, domain.Chunk{
			Text:   strings.Join(words[start:end], " "),
			Source: document.Name,
		})
	}
	return chunks, nil
}

package domain

import "context"

// Document represents a single source file loaded into the system.
type Document struct {
	ID      string
	Name    string
	Path    string
	Content string
}

// Chunk is a bounded slice of a document's text tagged with its origin.
// Source is the document name rendered into prompts.
type Chunk struct {
	Text   string
	Source string
}

// RetrievedResult is a chunk matched by a nearest-neighbor query.
// Smaller distances are more relevant.
type RetrievedResult struct {
	Chunk    Chunk
	Distance float64
}

// QAPair is one completed conversation turn.
type QAPair struct {
	Question string
	Answer   string
}

// Embedder converts free text into numeric vectors.
// Embed returns exactly one vector per input text, in input order.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

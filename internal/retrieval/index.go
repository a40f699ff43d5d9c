// Package retrieval builds the embedding index over a corpus of chunks and
// answers nearest-neighbor queries against it.
//
// An Index pairs a vector store with a metadata slice: position i of the
// metadata describes vector i of the store. Both are created together by
// Build and never mutated afterwards; rebuilding produces a new Index.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"ragscholar/internal/domain"
	"ragscholar/internal/vectorstore"
	"ragscholar/internal/vectorstore/memory"
)

// DefaultTopK is the number of excerpts retrieved per question.
const DefaultTopK = 3

// Index is an immutable embedding index over a chunk corpus.
type Index struct {
	embedder  domain.Embedder
	store     vectorstore.Storage
	metadata  []domain.Chunk
	dimension int
}

// Option customizes Build.
type Option func(*options)

type options struct {
	newStorage func() vectorstore.Storage
}

// WithStorage replaces the flat in-memory store with another backend.
func WithStorage(fn func() vectorstore.Storage) Option {
	return func(o *options) { o.newStorage = fn }
}

// Build embeds every chunk and constructs a flat squared-L2 index.
// The vector dimension is taken from the first embedding; any vector that
// disagrees fails the build with *domain.DimensionMismatchError before a
// store is populated. An empty corpus yields an empty Index.
func Build(ctx context.Context, chunks []domain.Chunk, emb domain.Embedder, opts ...Option) (*Index, error) {
	o := options{newStorage: func() vectorstore.Storage { return memory.NewStorage() }}
	for _, fn := range opts {
		fn(&o)
	}
	if len(chunks) == 0 {
		return &Index{embedder: emb, store: o.newStorage()}, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		if ch.Text == "" {
			return nil, fmt.Errorf("%w: position %d (%s)", domain.ErrEmptyChunk, i, ch.Source)
		}
		texts[i] = ch.Text
	}

	if err := emb.Prepare(ctx, texts); err != nil {
		return nil, fmt.Errorf("preparing embedder %s: %w", emb.Name(), err)
	}
	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingCount, len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w from %s", domain.ErrZeroDimension, emb.Name())
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &domain.DimensionMismatchError{Position: i, Expected: dim, Actual: len(v)}
		}
	}

	store := o.newStorage()
	if err := store.Init(dim); err != nil {
		return nil, err
	}
	if err := store.Add(vectors); err != nil {
		return nil, err
	}

	metadata := make([]domain.Chunk, len(chunks))
	copy(metadata, chunks)
	if store.Len() != len(metadata) {
		return nil, fmt.Errorf("index misaligned: %d vectors, %d chunks", store.Len(), len(metadata))
	}
	return &Index{embedder: emb, store: store, metadata: metadata, dimension: dim}, nil
}

// Retrieve embeds query and returns up to topK chunks ordered by ascending distance.
func (ix *Index) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTopK, topK)
	}
	if ix == nil || len(ix.metadata) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 query", domain.ErrEmbeddingCount, len(vecs))
	}
	if len(vecs[0]) != ix.dimension {
		return nil, &domain.DimensionMismatchError{Position: -1, Expected: ix.dimension, Actual: len(vecs[0])}
	}

	hits, err := ix.store.Search(vecs[0], min(topK, len(ix.metadata)))
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	results := make([]domain.RetrievedResult, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(ix.metadata) {
			return nil, fmt.Errorf("index returned position %d outside metadata of %d", h.Position, len(ix.metadata))
		}
		results = append(results, domain.RetrievedResult{Chunk: ix.metadata[h.Position], Distance: h.Distance})
	}
	// the ordering is part of the contract, whatever the backend returns
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	return results, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.metadata)
}

// Dimension returns the vector dimension, or 0 for an empty index.
func (ix *Index) Dimension() int {
	if ix == nil {
		return 0
	}
	return ix.dimension
}

// Chunks returns a copy of the metadata sequence in index order.
func (ix *Index) Chunks() []domain.Chunk {
	if ix == nil {
		return nil
	}
	out := make([]domain.Chunk, len(ix.metadata))
	copy(out, ix.metadata)
	return out
}

// EmbedderName names the embedder the index was built with.
func (ix *Index) EmbedderName() string {
	if ix == nil || ix.embedder == nil {
		return ""
	}
	return ix.embedder.Name()
}

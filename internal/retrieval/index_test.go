package retrieval

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragscholar/internal/domain"
	"ragscholar/internal/vectorstore"
	"ragscholar/internal/vectorstore/memory"
)

// tableEmbedder maps known texts to fixed vectors; unknown texts get the zero vector of dim.
type tableEmbedder struct {
	vectors  map[string][]float32
	dim      int
	err      error
	prepared []string
	calls    int
}

func (e *tableEmbedder) Name() string { return "table" }

func (e *tableEmbedder) Prepare(_ context.Context, corpus []string) error {
	e.prepared = corpus
	return nil
}

func (e *tableEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := e.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

// reversedStorage returns hits in descending distance order.
type reversedStorage struct {
	*memory.Storage
}

func (s reversedStorage) Search(vector []float32, topK int) ([]vectorstore.Hit, error) {
	hits, err := s.Storage.Search(vector, topK)
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance > hits[j].Distance })
	return hits, err
}

func corpus() ([]domain.Chunk, *tableEmbedder) {
	chunks := []domain.Chunk{
		{Text: "far", Source: "a.pdf"},
		{Text: "near", Source: "b.pdf"},
		{Text: "middle", Source: "a.pdf"},
		{Text: "farther", Source: "c.pdf"},
	}
	emb := &tableEmbedder{dim: 2, vectors: map[string][]float32{
		"far":     {5, 0},
		"near":    {1, 0},
		"middle":  {3, 0},
		"farther": {9, 0},
		"query":   {0, 0},
	}}
	return chunks, emb
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("AlignsMetadataWithVectors", func(t *testing.T) {
		chunks, emb := corpus()
		ix, err := Build(ctx, chunks, emb)
		require.NoError(t, err)

		assert.Equal(t, len(chunks), ix.Len())
		assert.Equal(t, 2, ix.Dimension())
		assert.Equal(t, chunks, ix.Chunks())
		assert.Equal(t, []string{"far", "near", "middle", "farther"}, emb.prepared)

		// retrieving each chunk's own text must return that chunk at distance 0
		for i, ch := range chunks {
			res, err := ix.Retrieve(ctx, ch.Text, 1)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, chunks[i], res[0].Chunk)
			assert.Zero(t, res[0].Distance)
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		chunks, emb := corpus()
		emb.vectors["middle"] = []float32{3, 0, 1}

		ix, err := Build(ctx, chunks, emb)
		assert.Nil(t, ix)
		var dm *domain.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Position)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
	})

	t.Run("ZeroDimension", func(t *testing.T) {
		emb := &tableEmbedder{dim: 0}
		_, err := Build(ctx, []domain.Chunk{{Text: "x"}}, emb)
		assert.ErrorIs(t, err, domain.ErrZeroDimension)
		var dm *domain.DimensionMismatchError
		assert.False(t, errors.As(err, &dm))
	})

	t.Run("EmptyChunkText", func(t *testing.T) {
		_, emb := corpus()
		_, err := Build(ctx, []domain.Chunk{{Text: "near"}, {Text: "", Source: "x.pdf"}}, emb)
		assert.ErrorIs(t, err, domain.ErrEmptyChunk)
		assert.Zero(t, emb.calls)
	})

	t.Run("EmbedderFailure", func(t *testing.T) {
		boom := domain.ServiceError("table", errors.New("timeout"))
		emb := &tableEmbedder{dim: 2, err: boom}
		_, err := Build(ctx, []domain.Chunk{{Text: "x"}}, emb)
		assert.ErrorIs(t, err, domain.ErrServiceCall)
	})

	t.Run("EmptyCorpus", func(t *testing.T) {
		_, emb := corpus()
		ix, err := Build(ctx, nil, emb)
		require.NoError(t, err)
		assert.Zero(t, ix.Len())
		assert.Zero(t, emb.calls)

		res, err := ix.Retrieve(ctx, "query", 3)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrEmptyIndex)
		assert.True(t, strings.Contains(err.Error(), "no chunks to index"))
	})
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("SortedAscending", func(t *testing.T) {
		chunks, emb := corpus()
		ix, err := Build(ctx, chunks, emb)
		require.NoError(t, err)

		res, err := ix.Retrieve(ctx, "query", 3)
		require.NoError(t, err)
		require.Len(t, res, 3)
		assert.Equal(t, "near", res[0].Chunk.Text)
		assert.Equal(t, "middle", res[1].Chunk.Text)
		assert.Equal(t, "far", res[2].Chunk.Text)
		assert.InDelta(t, 1, res[0].Distance, 1e-9)
		assert.InDelta(t, 9, res[1].Distance, 1e-9)
		assert.InDelta(t, 25, res[2].Distance, 1e-9)
	})

	t.Run("SortsUnorderedBackend", func(t *testing.T) {
		chunks, emb := corpus()
		ix, err := Build(ctx, chunks, emb, WithStorage(func() vectorstore.Storage {
			return reversedStorage{memory.NewStorage()}
		}))
		require.NoError(t, err)

		res, err := ix.Retrieve(ctx, "query", 4)
		require.NoError(t, err)
		require.Len(t, res, 4)
		for i := 1; i < len(res); i++ {
			assert.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
		}
	})

	t.Run("TopKCappedAtCorpusSize", func(t *testing.T) {
		chunks, emb := corpus()
		ix, err := Build(ctx, chunks, emb)
		require.NoError(t, err)

		res, err := ix.Retrieve(ctx, "query", 100)
		require.NoError(t, err)
		assert.Len(t, res, len(chunks))
	})

	t.Run("InvalidTopK", func(t *testing.T) {
		chunks, emb := corpus()
		ix, err := Build(ctx, chunks, emb)
		require.NoError(t, err)

		_, err = ix.Retrieve(ctx, "query", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidTopK)
	})

	t.Run("QueryEmbeddingFailure", func(t *testing.T) {
		chunks, emb := corpus()
		ix, err := Build(ctx, chunks, emb)
		require.NoError(t, err)

		emb.err = domain.ServiceError("table", errors.New("503"))
		_, err = ix.Retrieve(ctx, "query", 1)
		assert.ErrorIs(t, err, domain.ErrServiceCall)
	})

	t.Run("DoesNotMutate", func(t *testing.T) {
		chunks, emb := corpus()
		ix, err := Build(ctx, chunks, emb)
		require.NoError(t, err)

		before := ix.Chunks()
		_, err = ix.Retrieve(ctx, "query", 2)
		require.NoError(t, err)
		assert.Equal(t, before, ix.Chunks())
		assert.Equal(t, len(chunks), ix.Len())
	})

	t.Run("NilIndex", func(t *testing.T) {
		var ix *Index
		_, err := ix.Retrieve(ctx, "q", 1)
		assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	})
}

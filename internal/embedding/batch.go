// Package embedding holds embedding helpers shared by the concrete embedders
// in its subpackages.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ragscholar/internal/domain"
)

const (
	DefaultBatchSize   = 32
	DefaultParallelism = 4
)

// Batcher splits Embed calls into fixed-size batches, sends up to
// parallelism batches at once and reassembles the vectors in input order.
type Batcher struct {
	inner       domain.Embedder
	batchSize   int
	parallelism int
}

var _ domain.Embedder = (*Batcher)(nil)

func NewBatcher(inner domain.Embedder, batchSize, parallelism int) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Batcher{inner: inner, batchSize: batchSize, parallelism: parallelism}
}

func (b *Batcher) Name() string { return b.inner.Name() }

func (b *Batcher) Prepare(ctx context.Context, corpus []string) error {
	return b.inner.Prepare(ctx, corpus)
}

func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) <= b.batchSize {
		return b.embedBatch(ctx, texts, 0)
	}
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)
	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := b.embedBatch(gctx, texts[start:end], start)
			if err != nil {
				return err
			}
			// batches write disjoint ranges of out
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Batcher) embedBatch(ctx context.Context, texts []string, offset int) ([][]float32, error) {
	vecs, err := b.inner.Embed(ctx, texts)
	if err != nil {
		// cancellation passes through unwrapped
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.ServiceError(b.inner.Name(), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: batch at %d: got %d, want %d", domain.ErrEmbeddingCount, offset, len(vecs), len(texts))
	}
	return vecs, nil
}

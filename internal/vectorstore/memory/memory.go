package memory

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"

	"ragscholar/internal/domain"
	"ragscholar/internal/vectorstore"
)

// Storage is a flat in-memory vector store using brute-force squared L2 distance.
// Vectors are stored as given; no normalization is applied.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

var _ vectorstore.Storage = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	return nil
}

// Add appends vectors after validating all of them, so a failed call leaves the store unchanged.
func (s *Storage) Add(vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return errors.New("storage not initialized")
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			return &domain.DimensionMismatchError{Position: len(s.vectors) + i, Expected: s.dimension, Actual: len(v)}
		}
	}
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search returns the topK nearest positions in ascending distance order.
func (s *Storage) Search(vector []float32, topK int) ([]vectorstore.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTopK, topK)
	}
	if len(vector) != s.dimension {
		return nil, &domain.DimensionMismatchError{Position: -1, Expected: s.dimension, Actual: len(vector)}
	}
	topK = min(topK, len(s.vectors))
	// max-heap of the best topK seen so far; the root is the worst kept hit
	h := make(hitHeap, 0, topK)
	for i, v := range s.vectors {
		d := vectorstore.SquaredL2(vector, v)
		if len(h) < topK {
			heap.Push(&h, vectorstore.Hit{Position: i, Distance: d})
			continue
		}
		if topK > 0 && d < h[0].Distance {
			h[0] = vectorstore.Hit{Position: i, Distance: d}
			heap.Fix(&h, 0)
		}
	}
	out := make([]vectorstore.Hit, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(vectorstore.Hit)
	}
	return out, nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	return nil
}

type hitHeap []vectorstore.Hit

func (h hitHeap) Len() int { return len(h) }

// Less orders by descending distance; ties keep the later position on top so
// that earlier positions survive eviction.
func (h hitHeap) Less(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].Position > h[j].Position
}

func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(vectorstore.Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

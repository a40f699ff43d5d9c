package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragscholar/internal/domain"
)

func newStorage(t *testing.T, vectors ...[]float32) *Storage {
	t.Helper()
	s := NewStorage()
	require.NoError(t, s.Init(len(vectors[0])))
	require.NoError(t, s.Add(vectors))
	return s
}

func TestStorage(t *testing.T) {
	t.Run("InvalidDimension", func(t *testing.T) {
		assert.Error(t, NewStorage().Init(0))
	})

	t.Run("AddBeforeInit", func(t *testing.T) {
		assert.Error(t, NewStorage().Add([][]float32{{1}}))
	})

	t.Run("AddDimensionMismatch", func(t *testing.T) {
		s := NewStorage()
		require.NoError(t, s.Init(3))
		err := s.Add([][]float32{{1, 2, 3}, {1, 2}})

		var dm *domain.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 1, dm.Position)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
		assert.Equal(t, 0, s.Len(), "failed add must not partially apply")
	})

	t.Run("KNNSearch", func(t *testing.T) {
		s := newStorage(t, []float32{1, 2, 3}, []float32{4, 5, 6}, []float32{7, 8, 9})

		hits, err := s.Search([]float32{0, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, 0, hits[0].Position)
		assert.Equal(t, 1, hits[1].Position)
		assert.InDelta(t, 14, hits[0].Distance, 1e-9)
		assert.InDelta(t, 77, hits[1].Distance, 1e-9)
	})

	t.Run("TopKCappedAtSize", func(t *testing.T) {
		s := newStorage(t, []float32{3}, []float32{1}, []float32{2})

		hits, err := s.Search([]float32{0}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []int{1, 2, 0}, []int{hits[0].Position, hits[1].Position, hits[2].Position})
	})

	t.Run("TiesPreferEarlierPositions", func(t *testing.T) {
		s := newStorage(t, []float32{1}, []float32{-1}, []float32{1})

		hits, err := s.Search([]float32{0}, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, hits[0].Position)
		assert.Equal(t, 1, hits[1].Position)
	})

	t.Run("QueryDimensionMismatch", func(t *testing.T) {
		s := newStorage(t, []float32{1, 2})
		_, err := s.Search([]float32{1}, 1)
		var dm *domain.DimensionMismatchError
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("InvalidTopK", func(t *testing.T) {
		s := newStorage(t, []float32{1})
		_, err := s.Search([]float32{1}, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidTopK)
	})

	t.Run("Clear", func(t *testing.T) {
		s := newStorage(t, []float32{1})
		require.NoError(t, s.Clear())
		assert.Equal(t, 0, s.Len())
		assert.Equal(t, 1, s.Dimension())
	})
}

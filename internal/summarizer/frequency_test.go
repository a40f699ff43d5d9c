package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencySummarizer(t *testing.T) {
	s := NewFrequencySummarizer()

	t.Run("KeepsOriginalOrder", func(t *testing.T) {
		text := "Transformers changed retrieval. The weather was mild. Retrieval with transformers scales. Cats sleep a lot."
		got, err := s.Summarize(text, 2)
		require.NoError(t, err)
		assert.Equal(t, "Transformers changed retrieval. Retrieval with transformers scales.", got)
	})

	t.Run("FewerSentencesThanRequested", func(t *testing.T) {
		got, err := s.Summarize("Only one sentence here.", 5)
		require.NoError(t, err)
		assert.Equal(t, "Only one sentence here.", got)
	})

	t.Run("NoPunctuation", func(t *testing.T) {
		got, err := s.Summarize("  a fragment without an ending  ", 3)
		require.NoError(t, err)
		assert.Equal(t, "a fragment without an ending", got)
	})

	t.Run("NonPositiveUsesDefault", func(t *testing.T) {
		text := "One. Two. Three. Four. Five. Six. Seven."
		got, err := s.Summarize(text, 0)
		require.NoError(t, err)
		assert.Len(t, sentencePattern.FindAllString(got, -1), DefaultMaxSentences)
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := "Alpha beta. Gamma delta. Epsilon zeta. Eta theta."
		first, err := s.Summarize(text, 2)
		require.NoError(t, err)
		second, err := s.Summarize(text, 2)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, "Alpha beta. Gamma delta.", first)
	})
}

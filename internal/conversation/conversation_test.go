package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragscholar/internal/domain"
	"ragscholar/internal/llm"
)

func words(n int, w string) string {
	return strings.TrimSpace(strings.Repeat(w+" ", n))
}

// pair builds a QAPair totalling q+a whitespace tokens.
func pair(tag string, q, a int) domain.QAPair {
	return domain.QAPair{Question: words(q, tag+"q"), Answer: words(a, tag+"a")}
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 0, CountTokens(" \n\t "))
	assert.Equal(t, 3, CountTokens("  one\ttwo\nthree "))
}

func TestSelectRecentPairs(t *testing.T) {
	t.Run("BudgetCutoff", func(t *testing.T) {
		history := []domain.QAPair{pair("1", 100, 500), pair("2", 100, 500), pair("3", 100, 500)}

		got := SelectRecentPairs(history, 1500, 5)
		assert.Equal(t, history[1:], got)
	})

	t.Run("HardExclusionOfOversizedNewest", func(t *testing.T) {
		history := []domain.QAPair{pair("1", 1000, 501)}
		assert.Empty(t, SelectRecentPairs(history, 1500, 5))
	})

	t.Run("OversizedNewestHidesOlder", func(t *testing.T) {
		history := []domain.QAPair{pair("1", 1, 1), pair("2", 10, 10)}
		assert.Empty(t, SelectRecentPairs(history, 15, 5))
	})

	t.Run("ExactBudgetIncluded", func(t *testing.T) {
		history := []domain.QAPair{pair("1", 5, 5), pair("2", 5, 5)}
		assert.Equal(t, history, SelectRecentPairs(history, 20, 5))
	})

	t.Run("PairLimit", func(t *testing.T) {
		var history []domain.QAPair
		for i := range 8 {
			history = append(history, pair(string(rune('a'+i)), 1, 1))
		}
		got := SelectRecentPairs(history, 1500, 5)
		assert.Equal(t, history[3:], got)
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		got := SelectRecentPairs(nil, 1500, 5)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("NonPositiveLimitsUseDefaults", func(t *testing.T) {
		history := []domain.QAPair{pair("1", 100, 500), pair("2", 100, 500), pair("3", 100, 500)}
		assert.Equal(t, history[1:], SelectRecentPairs(history, 0, -1))
	})

	t.Run("DoesNotAliasHistory", func(t *testing.T) {
		history := []domain.QAPair{pair("1", 1, 1), pair("2", 1, 1)}
		got := SelectRecentPairs(history, 1500, 5)
		got[0].Question = "changed"
		assert.NotEqual(t, "changed", history[0].Question)
	})
}

type recorder struct {
	prompts []string
	resp    llm.Response
	err     error
}

func (r *recorder) Complete(_ context.Context, prompt string) (llm.Response, error) {
	r.prompts = append(r.prompts, prompt)
	return r.resp, r.err
}

func TestCompress(t *testing.T) {
	ctx := context.Background()
	pairs := []domain.QAPair{
		{Question: "Who wrote A?", Answer: "Alice."},
		{Question: "When?", Answer: "In 1999."},
	}

	t.Run("PromptLayout", func(t *testing.T) {
		rec := &recorder{resp: llm.TextResponse("Alice wrote A ", "in 1999.")}

		got := Compress(ctx, pairs, rec, nil)
		assert.Equal(t, "Alice wrote A in 1999.", got)

		require.Len(t, rec.prompts, 1)
		want := "Below is a conversation history. Extract only the essential facts and context required to answer a new follow-up question.\n" +
			"Return this as a compact paragraph (do not repeat full Q&A):\n\n" +
			"Q: Who wrote A?\nA: Alice.\nQ: When?\nA: In 1999.\n" +
			"\n\nCompressed Context:"
		assert.Equal(t, want, rec.prompts[0])
	})

	t.Run("EmptyPairsStillCallsService", func(t *testing.T) {
		rec := &recorder{resp: llm.TextResponse("nothing")}
		assert.Equal(t, "nothing", Compress(ctx, nil, rec, nil))
		require.Len(t, rec.prompts, 1)
		assert.Contains(t, rec.prompts[0], "(do not repeat full Q&A):\n\n\n\nCompressed Context:")
	})

	t.Run("NoCandidatesIsEmpty", func(t *testing.T) {
		rec := &recorder{resp: llm.Response{}}
		assert.Equal(t, "", Compress(ctx, pairs, rec, nil))
	})

	t.Run("FailureNotifies", func(t *testing.T) {
		rec := &recorder{err: errors.New("connection reset")}
		var stage string
		var notified error
		got := Compress(ctx, pairs, rec, func(s string, err error) {
			stage, notified = s, err
		})
		assert.Equal(t, "", got)
		assert.Equal(t, StageCompress, stage)
		assert.ErrorIs(t, notified, domain.ErrServiceCall)
	})
}

func TestExpand(t *testing.T) {
	ctx := context.Background()

	t.Run("PromptLayout", func(t *testing.T) {
		rec := &recorder{resp: llm.TextResponse("When did Alice write A?")}

		got := Expand(ctx, "When?", "Alice wrote A.", rec, nil)
		assert.Equal(t, "When did Alice write A?", got)

		want := "You are expanding the following user question using background knowledge:\n\n" +
			"Background Context:\nAlice wrote A.\n\n" +
			"Original Question:\nWhen?\n\n" +
			"Expanded Question (self-contained, with context):"
		require.Len(t, rec.prompts, 1)
		assert.Equal(t, want, rec.prompts[0])
	})

	t.Run("NoCandidatesIsEmpty", func(t *testing.T) {
		rec := &recorder{resp: llm.Response{}}
		assert.Equal(t, "", Expand(ctx, "q", "ctx", rec, nil))
	})

	t.Run("CandidateWithoutContent", func(t *testing.T) {
		rec := &recorder{resp: llm.Response{Candidates: []llm.Candidate{{}}}}
		assert.Equal(t, "", Expand(ctx, "q", "ctx", rec, nil))
	})

	t.Run("FailureNotifies", func(t *testing.T) {
		rec := &recorder{err: errors.New("503")}
		var stages []string
		assert.Equal(t, "", Expand(ctx, "q", "ctx", rec, func(s string, _ error) {
			stages = append(stages, s)
		}))
		assert.Equal(t, []string{StageExpand}, stages)
	})
}

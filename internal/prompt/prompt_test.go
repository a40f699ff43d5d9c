package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ragscholar/internal/domain"
)

func result(src, text string, d float64) domain.RetrievedResult {
	return domain.RetrievedResult{Chunk: domain.Chunk{Text: text, Source: src}, Distance: d}
}

func TestRenderFirstTurn(t *testing.T) {
	t.Run("Fidelity", func(t *testing.T) {
		got := RenderFirstTurn(DefaultInstruction, []domain.RetrievedResult{result("a.pdf", "X", 0.1)}, "why?")

		assert.Contains(t, got, "Article (a.pdf):\nX")
		assert.Contains(t, got, "User: why?")
		assert.True(t, strings.HasSuffix(got, "Answer:"))
		assert.True(t, strings.HasPrefix(got, "Instruction:\n"+DefaultInstruction+"\n\n"))
	})

	t.Run("Layout", func(t *testing.T) {
		results := []domain.RetrievedResult{result("a.pdf", "X", 0.1), result("b.pdf", "Y", 0.2)}
		got := RenderFirstTurn("Be brief.", results, "why?")

		want := "Instruction:\nBe brief.\n\n" +
			"Article Excerpts:\nArticle (a.pdf):\nX\n\nArticle (b.pdf):\nY\n\n" +
			"Conversation History:\nUser: why?\n\n\n" +
			"Based on the above, please provide a comprehensive answer that includes a general evaluation of the articles and draws comparisons between them where relevant.\n" +
			"Answer:"
		assert.Equal(t, want, got)
	})

	t.Run("HistoryBeforeQuery", func(t *testing.T) {
		got := RenderFirstTurn("i", nil, "and B?",
			Message{Role: "User", Content: "what is A?"},
			Message{Role: "Assistant", Content: "A is a letter."},
		)
		assert.Contains(t, got, "Conversation History:\nUser: what is A?\nAssistant: A is a letter.\nUser: and B?\n")
		assert.Contains(t, got, "Article Excerpts:\n\n\nConversation History:")
	})

	t.Run("Idempotent", func(t *testing.T) {
		results := []domain.RetrievedResult{result("a.pdf", "X", 0.1)}
		assert.Equal(t,
			RenderFirstTurn(DefaultInstruction, results, "q"),
			RenderFirstTurn(DefaultInstruction, results, "q"),
		)
	})
}

func TestRenderFollowUp(t *testing.T) {
	t.Run("Layout", func(t *testing.T) {
		results := []domain.RetrievedResult{result("a.pdf", "X", 0.1), result("b.pdf", "Y", 0.3)}
		got := RenderFollowUp("Alice wrote A.", "When did Alice write A?", results)

		want := "Context from conversation:\nAlice wrote A.\n\n" +
			"User's expanded question:\nWhen did Alice write A?\n\n" +
			"Relevant document excerpts:\nDocument (a.pdf):\nX\n\nDocument (b.pdf):\nY\n\n" +
			"Based on the above, provide a comprehensive answer:"
		assert.Equal(t, want, got)
	})

	t.Run("EmptyInputs", func(t *testing.T) {
		got := RenderFollowUp("", "", nil)
		assert.Equal(t, "Context from conversation:\n\n\nUser's expanded question:\n\n\nRelevant document excerpts:\n\n\nBased on the above, provide a comprehensive answer:", got)
	})

	t.Run("Idempotent", func(t *testing.T) {
		results := []domain.RetrievedResult{result("a.pdf", "X", 0.1)}
		assert.Equal(t, RenderFollowUp("c", "e", results), RenderFollowUp("c", "e", results))
	})
}

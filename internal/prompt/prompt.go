// Package prompt renders the final answer prompts. Rendering is pure: the
// same inputs always produce byte-identical output.
package prompt

import (
	"fmt"
	"strings"

	"ragscholar/internal/domain"
)

// DefaultInstruction is the analyst instruction placed at the top of first-turn prompts.
const DefaultInstruction = "You are an expert article analyst with deep domain knowledge and a keen ability to compare, contrast, and summarize large sets of documents. " +
	"Your task is not only to answer the user's question based on the provided article excerpts, but also to provide a general evaluation of the overall content, " +
	"identify common themes, highlight significant differences, and point out any notable trends across the articles. " +
	"Ensure your response is comprehensive, well-structured, and includes comparisons when applicable. " +
	"If the user's question is ambiguous, ask for clarification. " +
	"If the answer cannot be derived from the provided articles, respond with: " +
	"\"I'm sorry, the answer to your question is not found in the uploaded articles. Please upload more comprehensive content.\""

// Message is one prior line of conversation rendered into the history block.
type Message struct {
	Role    string
	Content string
}

func excerpts(label string, results []domain.RetrievedResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%s (%s):\n%s", label, r.Chunk.Source, r.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

// RenderFirstTurn builds the prompt for a question asked without history.
// history is normally empty; any messages are listed before the query.
func RenderFirstTurn(instruction string, results []domain.RetrievedResult, query string, history ...Message) string {
	var conv strings.Builder
	for _, m := range history {
		fmt.Fprintf(&conv, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&conv, "User: %s\n", query)

	return "Instruction:\n" + instruction + "\n\n" +
		"Article Excerpts:\n" + excerpts("Article", results) + "\n\n" +
		"Conversation History:\n" + conv.String() + "\n\n" +
		"Based on the above, please provide a comprehensive answer that includes a general evaluation of the articles and draws comparisons between them where relevant.\n" +
		"Answer:"
}

// RenderFollowUp builds the prompt for a follow-up question from the
// compressed conversation context and the expanded question.
func RenderFollowUp(compressed, expanded string, results []domain.RetrievedResult) string {
	return "Context from conversation:\n" + compressed + "\n\n" +
		"User's expanded question:\n" + expanded + "\n\n" +
		"Relevant document excerpts:\n" + excerpts("Document", results) + "\n\n" +
		"Based on the above, provide a comprehensive answer:"
}

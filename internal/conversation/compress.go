package conversation

import (
	"context"
	"fmt"
	"strings"

	"ragscholar/internal/domain"
	"ragscholar/internal/llm"
)

const (
	StageCompress = "compress"
	StageExpand   = "expand"
)

// Transcript renders pairs as consecutive "Q: ...\nA: ...\n" blocks.
func Transcript(pairs []domain.QAPair) string {
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", p.Question, p.Answer)
	}
	return b.String()
}

// CompressionPrompt asks for a compact paragraph of the facts in pairs.
func CompressionPrompt(pairs []domain.QAPair) string {
	return "Below is a conversation history. Extract only the essential facts and context required to answer a new follow-up question.\n" +
		"Return this as a compact paragraph (do not repeat full Q&A):\n\n" +
		Transcript(pairs) + "\n\n" +
		"Compressed Context:"
}

// Compress summarizes pairs through c. The call is made even when pairs is
// empty. A failed call or a response without text yields "".
func Compress(ctx context.Context, pairs []domain.QAPair, c llm.Completer, notify llm.Notifier) string {
	return llm.Ask(ctx, c, StageCompress, CompressionPrompt(pairs), notify)
}

// ExpansionPrompt asks for question rewritten with compressed as background.
func ExpansionPrompt(question, compressed string) string {
	return "You are expanding the following user question using background knowledge:\n\n" +
		"Background Context:\n" + compressed + "\n\n" +
		"Original Question:\n" + question + "\n\n" +
		"Expanded Question (self-contained, with context):"
}

// Expand rewrites question into a self-contained one. The result is used as
// the retrieval query even when empty.
func Expand(ctx context.Context, question, compressed string, c llm.Completer, notify llm.Notifier) string {
	return llm.Ask(ctx, c, StageExpand, ExpansionPrompt(question, compressed), notify)
}

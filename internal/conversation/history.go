// Package conversation keeps follow-up questions grounded: it bounds the
// history to a token budget, compresses the selected turns into a background
// paragraph and rewrites the question into a self-contained one.
package conversation

import (
	"strings"

	"ragscholar/internal/domain"
)

const (
	DefaultMaxTokens = 1500
	DefaultMaxPairs  = 5
)

// CountTokens approximates a token count by whitespace-delimited words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

func pairTokens(p domain.QAPair) int {
	return CountTokens(p.Question) + CountTokens(p.Answer)
}

// SelectRecentPairs walks history from newest to oldest and keeps pairs while
// the running token total stays within maxTokens, stopping after maxPairs.
// The budget is hard: a newest pair that alone exceeds maxTokens yields an
// empty selection. The result is in chronological order and shares no
// backing array with history. Non-positive limits fall back to the defaults.
func SelectRecentPairs(history []domain.QAPair, maxTokens, maxPairs int) []domain.QAPair {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}

	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		n := pairTokens(history[i])
		if total+n > maxTokens {
			break
		}
		total += n
		start = i
		if len(history)-start >= maxPairs {
			break
		}
	}

	selected := make([]domain.QAPair, len(history)-start)
	copy(selected, history[start:])
	return selected
}

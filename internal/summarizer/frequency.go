package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"ragscholar/internal/domain"
)

// DefaultMaxSentences is used when Summarize is asked for a non-positive length.
const DefaultMaxSentences = 5

var (
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

// Summarize returns up to maxSentences of the highest scoring sentences in
// their original order. Text without sentence punctuation is returned trimmed.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			if _, ok := s.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, toks := range tokens {
		sscore := 0.0
		for _, tok := range toks {
			sscore += freq[tok]
		}
		// dampen the bias towards long sentences
		if l := float64(len(toks)); l > 0 {
			sscore /= math.Sqrt(l)
		}
		scores[i] = scored{i, sscore}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	n := min(maxSentences, len(scores))
	selected := make([]int, n)
	for i := range n {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, n)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " "), nil
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

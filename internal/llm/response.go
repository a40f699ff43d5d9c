// Package llm models the remote completion service: a typed response shape,
// the text extraction rule, and the call boundary that turns service failures
// into empty answers.
package llm

import "strings"

// Response is the completion service's reply: candidates holding content parts.
type Response struct {
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content *Content `json:"content,omitempty"`
}

// Content is an ordered list of parts produced by one role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is a content fragment. Text is nil for non-text parts.
type Part struct {
	Text *string `json:"text,omitempty"`
}

// TextResponse builds a single-candidate response with one text part per argument.
func TextResponse(texts ...string) Response {
	parts := make([]Part, len(texts))
	for i := range texts {
		parts[i] = Part{Text: &texts[i]}
	}
	return Response{Candidates: []Candidate{{Content: &Content{Role: "model", Parts: parts}}}}
}

// ExtractText concatenates the text of every part of every candidate, in
// order, with no separator. Missing candidates, content or text contribute nothing.
func ExtractText(resp Response) string {
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p.Text != nil {
				b.WriteString(*p.Text)
			}
		}
	}
	return b.String()
}

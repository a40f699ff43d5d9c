package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"ragscholar/internal/llm"
)

// Client is an OpenAI-compatible chat completion client implementing llm.Completer.
type Client struct {
	client      *goopenai.Client
	model       string
	maxRetries  int
	temperature float32
}

// Config configures the OpenAI-compatible chat client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float32
}

// NewClient creates a new chat client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	cc := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	cc.HTTPClient = &http.Client{Timeout: t}
	return &Client{
		client:      goopenai.NewClientWithConfig(cc),
		model:       cfg.Model,
		maxRetries:  max(cfg.MaxRetries, 0),
		temperature: cfg.Temperature,
	}, nil
}

// Model returns the configured chat model.
func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single user message. Each returned choice
// becomes one candidate holding a single text part.
func (c *Client) Complete(ctx context.Context, prompt string) (llm.Response, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return toResponse(resp), nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return llm.Response{}, fmt.Errorf("openai chat completion failed: %w", lastErr)
}

func toResponse(resp goopenai.ChatCompletionResponse) llm.Response {
	out := llm.Response{Candidates: make([]llm.Candidate, 0, len(resp.Choices))}
	for _, ch := range resp.Choices {
		text := ch.Message.Content
		out.Candidates = append(out.Candidates, llm.Candidate{Content: &llm.Content{
			Role:  ch.Message.Role,
			Parts: []llm.Part{{Text: &text}},
		}})
	}
	return out
}

func retryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func retryDelay(attempt int) time.Duration {
	d := (200 * time.Millisecond) << max(attempt, 0)
	return min(d, 5*time.Second)
}

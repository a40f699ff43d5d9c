package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	client     *goopenai.Client
	model      string
	maxRetries int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = string(goopenai.SmallEmbedding3)
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	cc := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	cc.HTTPClient = &http.Client{Timeout: t}
	return &Client{
		client:     goopenai.NewClientWithConfig(cc),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai:" + c.model }

// Prepare is not required for remote embedding.
func (c *Client) Prepare(context.Context, []string) error { return nil }

// Embed returns one embedding per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := goopenai.EmbeddingRequest{
		Input: texts,
		Model: goopenai.EmbeddingModel(c.model),
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err == nil {
			return collect(resp, len(texts))
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay(attempt)):
		}
	}
	return nil, fmt.Errorf("openai embeddings failed: %w", lastErr)
}

func collect(resp goopenai.EmbeddingResponse, n int) ([][]float32, error) {
	if len(resp.Data) != n {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), n)
	}
	out := make([][]float32, n)
	for i, d := range resp.Data {
		// the API reports each vector's input position; honour it when present
		idx := d.Index
		if idx < 0 || idx >= n || out[idx] != nil {
			idx = i
		}
		out[idx] = d.Embedding
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, fmt.Errorf("openai embeddings: empty vector at position %d", i)
		}
	}
	return out, nil
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
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

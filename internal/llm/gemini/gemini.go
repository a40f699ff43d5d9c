package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"ragscholar/internal/llm"
	"ragscholar/internal/logging"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// Client calls the Gemini generateContent endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
	logger     *slog.Logger
}

// Config configures the Gemini client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Logger     *slog.Logger
}

// NewClient creates a Gemini client reading its API key from cfg.APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logging.OrDiscard(cfg.Logger),
	}, nil
}

type textPart struct {
	Text string `json:"text"`
}

type content struct {
	Parts []textPart `json:"parts"`
}

type request struct {
	Contents []content `json:"contents"`
}

// Complete sends prompt as a single user turn. Transport failures and non-2xx
// statuses are errors; a body that does not decode is treated as a response
// without content.
func (c *Client) Complete(ctx context.Context, prompt string) (llm.Response, error) {
	data, err := json.Marshal(request{Contents: []content{{Parts: []textPart{{Text: prompt}}}}})
	if err != nil {
		return llm.Response{}, fmt.Errorf("marshaling request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return llm.Response{}, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				if werr := sleep(ctx, retryDelay(attempt)); werr != nil {
					return llm.Response{}, werr
				}
				continue
			}
			return llm.Response{}, fmt.Errorf("gemini request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			if attempt < c.maxRetries {
				wait := retryDelay(attempt)
				// respect Retry-After if provided
				if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
					wait = time.Duration(secs) * time.Second
				}
				if werr := sleep(ctx, wait); werr != nil {
					return llm.Response{}, werr
				}
				continue
			}
			return llm.Response{}, fmt.Errorf("gemini generateContent failed: %s", resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return llm.Response{}, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode >= 300 {
			return llm.Response{}, fmt.Errorf("gemini generateContent failed: %s", resp.Status)
		}

		var out llm.Response
		if err := json.Unmarshal(payload, &out); err != nil {
			c.logger.WarnContext(ctx, "malformed completion response", "model", c.model, "error", err)
			return llm.Response{}, nil
		}
		return out, nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
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

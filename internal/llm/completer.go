package llm

import (
	"context"
	"log/slog"
	"time"

	"ragscholar/internal/domain"
)

// Completer sends a prompt to a completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (Response, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (Response, error) {
	return f(ctx, prompt)
}

// Notifier receives completion failures that were degraded to empty text.
// stage names the pipeline step, e.g. "compress".
type Notifier func(stage string, err error)

// Ask is the single boundary for completion calls. It sends prompt through c
// and returns the extracted text. A failed call is reported to notify (when
// non-nil) and yields "" instead of an error.
func Ask(ctx context.Context, c Completer, stage, prompt string, notify Notifier) string {
	resp, err := c.Complete(ctx, prompt)
	if err != nil {
		if notify != nil {
			notify(stage, domain.ServiceError(stage, err))
		}
		return ""
	}
	return ExtractText(resp)
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds every call made through c. A non-positive timeout returns c unchanged.
func WithTimeout(c Completer, timeout time.Duration) Completer {
	if timeout <= 0 {
		return c
	}
	return &timeoutCompleter{next: c, timeout: timeout}
}

func (t *timeoutCompleter) Complete(ctx context.Context, prompt string) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, prompt)
}

type loggingCompleter struct {
	next   Completer
	name   string
	logger *slog.Logger
}

// WithLogging logs each call's duration and outcome at debug level.
func WithLogging(c Completer, name string, logger *slog.Logger) Completer {
	if logger == nil {
		return c
	}
	return &loggingCompleter{next: c, name: name, logger: logger}
}

func (l *loggingCompleter) Complete(ctx context.Context, prompt string) (Response, error) {
	start := time.Now()
	resp, err := l.next.Complete(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		l.logger.WarnContext(ctx, "completion failed",
			"provider", l.name,
			"elapsed", elapsed,
			"error", err,
		)
		return resp, err
	}
	l.logger.DebugContext(ctx, "completion finished",
		"provider", l.name,
		"elapsed", elapsed,
		"prompt_chars", len(prompt),
		"candidates", len(resp.Candidates),
	)
	return resp, nil
}

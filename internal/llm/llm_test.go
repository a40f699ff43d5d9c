package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragscholar/internal/domain"
)

func ptr(s string) *string { return &s }

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"ZeroCandidates", Response{}, ""},
		{"NilContent", Response{Candidates: []Candidate{{}}}, ""},
		{"NoParts", Response{Candidates: []Candidate{{Content: &Content{}}}}, ""},
		{"NilText", Response{Candidates: []Candidate{{Content: &Content{Parts: []Part{{}}}}}}, ""},
		{"SinglePart", TextResponse("hello"), "hello"},
		{"PartsNoSeparator", TextResponse("foo", " bar", "baz"), "foo barbaz"},
		{
			"AcrossCandidates",
			Response{Candidates: []Candidate{
				{Content: &Content{Parts: []Part{{Text: ptr("a")}, {}, {Text: ptr("b")}}}},
				{},
				{Content: &Content{Parts: []Part{{Text: ptr("c")}}}},
			}},
			"abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.resp))
		})
	}
}

func TestAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsText", func(t *testing.T) {
		var got string
		c := CompleterFunc(func(_ context.Context, prompt string) (Response, error) {
			got = prompt
			return TextResponse("answer"), nil
		})
		assert.Equal(t, "answer", Ask(ctx, c, "answer", "prompt", nil))
		assert.Equal(t, "prompt", got)
	})

	t.Run("FailureDegradesToEmpty", func(t *testing.T) {
		c := CompleterFunc(func(context.Context, string) (Response, error) {
			return Response{}, errors.New("connection reset")
		})
		var stage string
		var reported error
		out := Ask(ctx, c, "expand", "p", func(s string, err error) {
			stage, reported = s, err
		})
		assert.Empty(t, out)
		assert.Equal(t, "expand", stage)
		assert.ErrorIs(t, reported, domain.ErrServiceCall)
		assert.Contains(t, reported.Error(), "connection reset")
	})

	t.Run("FailureWithoutNotifier", func(t *testing.T) {
		c := CompleterFunc(func(context.Context, string) (Response, error) {
			return Response{}, errors.New("boom")
		})
		assert.Empty(t, Ask(ctx, c, "answer", "p", nil))
	})
}

func TestWithTimeout(t *testing.T) {
	slow := CompleterFunc(func(ctx context.Context, _ string) (Response, error) {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(time.Second):
			return TextResponse("late"), nil
		}
	})

	_, err := WithTimeout(slow, 10*time.Millisecond).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	same := WithTimeout(slow, 0)
	_, ok := same.(CompleterFunc)
	assert.True(t, ok)
}

func TestWithLogging(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := WithLogging(CompleterFunc(func(context.Context, string) (Response, error) {
		return TextResponse("ok"), nil
	}), "fake", logger)

	resp, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", ExtractText(resp))
}

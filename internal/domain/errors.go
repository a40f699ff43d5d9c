package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIndex is returned when retrieval runs against an index built from zero chunks.
	ErrEmptyIndex = errors.New("no chunks to index")

	// ErrEmptyChunk is returned when a chunk with empty text reaches the index builder.
	ErrEmptyChunk = errors.New("chunk text is empty")

	// ErrEmbeddingCount is returned when an embedder returns a different number of vectors than inputs.
	ErrEmbeddingCount = errors.New("embedding count does not match input count")

	// ErrZeroDimension is returned when an embedder produces empty vectors.
	ErrZeroDimension = errors.New("zero-dimension embedding")

	// ErrInvalidTopK is returned when top-k is not positive.
	ErrInvalidTopK = errors.New("top-k must be positive")

	// ErrNoIndex is returned when a question is asked before any documents were processed.
	ErrNoIndex = errors.New("no documents processed")

	// ErrNoDocuments is returned when ingestion finds no readable documents.
	ErrNoDocuments = errors.New("no documents found")

	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrServiceCall marks transport or HTTP failures of a remote embedding or completion call.
	ErrServiceCall = errors.New("service call failed")
)

// DimensionMismatchError indicates that embedding vectors disagree on dimensionality.
type DimensionMismatchError struct {
	Position int
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch at position %d: expected %d, got %d", e.Position, e.Expected, e.Actual)
}

// ServiceError wraps err so that errors.Is(err, ErrServiceCall) holds.
func ServiceError(service string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrServiceCall, service, err)
}

package service

import (
	"fmt"

	"github.com/google/uuid"

	"ragscholar/internal/domain"
	"ragscholar/internal/retrieval"
)

// Session is one conversation over one processed document set. It is owned
// by the caller and must not be shared between concurrent turns.
type Session struct {
	ID        uuid.UUID
	ModelName string
	ChunkSize int
	// History grows by one pair per completed turn and is reset when
	// documents are reprocessed.
	History []domain.QAPair
	Summary string

	index *retrieval.Index
}

// Ready reports whether documents have been processed for this session.
func (s *Session) Ready() bool {
	return s.index != nil
}

// Index returns the session's current index, or nil before ingestion.
func (s *Session) Index() *retrieval.Index {
	return s.index
}

// Notice is a non-fatal service failure surfaced to the user.
type Notice struct {
	Stage string
	Err   error
}

func (n Notice) String() string {
	return fmt.Sprintf("%s: %v", n.Stage, n.Err)
}

// Turn records everything produced while answering one question.
type Turn struct {
	Question          string
	FollowUp          bool
	CompressedContext string
	ExpandedQuestion  string
	Results           []domain.RetrievedResult
	Prompt            string
	Answer            string
	Notices           []Notice
}

// DocumentReport describes how one document was processed.
type DocumentReport struct {
	Name       string
	RawChars   int
	CleanChars int
	Chunks     int
}

// IngestReport summarizes a processing run.
type IngestReport struct {
	Documents   []DocumentReport
	Skipped     []string
	TotalChunks int
	Dimension   int
	Summary     string
}

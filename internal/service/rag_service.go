// Package service runs the question-answering pipeline: it processes
// documents into a session's index and answers first-turn and follow-up
// questions against it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"ragscholar/internal/chunker"
	"ragscholar/internal/conversation"
	"ragscholar/internal/domain"
	"ragscholar/internal/llm"
	"ragscholar/internal/logging"
	"ragscholar/internal/prompt"
	"ragscholar/internal/retrieval"
)

const (
	StageRetrieve = "retrieve"
	StageAnswer   = "answer"
)

// DocumentLoader resolves user-supplied paths into documents.
type DocumentLoader interface {
	Load(paths []string) ([]domain.Document, error)
}

// EmbedderFactory returns a fresh embedder for each index build, so that
// stateful embedders are never shared between indexes.
type EmbedderFactory func() (domain.Embedder, error)

// Options tunes retrieval and prompting.
type Options struct {
	TopK                int
	MaxHistoryTokens    int
	MaxHistoryPairs     int
	Instruction         string
	SummaryMaxSentences int
	ModelName           string
	ChunkSize           int
}

// RAGService answers questions over processed documents.
type RAGService struct {
	loader      DocumentLoader
	chunker     domain.Chunker
	newEmbedder EmbedderFactory
	completer   llm.Completer
	summarizer  domain.Summarizer
	opts        Options
	logger      *slog.Logger
}

// NewRAGService wires the pipeline. summarizer and logger may be nil.
func NewRAGService(loader DocumentLoader, ch domain.Chunker, newEmbedder EmbedderFactory, completer llm.Completer, summarizer domain.Summarizer, opts Options, logger *slog.Logger) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	if opts.MaxHistoryTokens <= 0 {
		opts.MaxHistoryTokens = conversation.DefaultMaxTokens
	}
	if opts.MaxHistoryPairs <= 0 {
		opts.MaxHistoryPairs = conversation.DefaultMaxPairs
	}
	if opts.Instruction == "" {
		opts.Instruction = prompt.DefaultInstruction
	}
	return &RAGService{
		loader:      loader,
		chunker:     ch,
		newEmbedder: newEmbedder,
		completer:   completer,
		summarizer:  summarizer,
		opts:        opts,
		logger:      logging.OrDiscard(logger),
	}
}

// NewSession starts an empty session.
func (s *RAGService) NewSession() *Session {
	return &Session{ID: uuid.New(), ModelName: s.opts.ModelName, ChunkSize: s.opts.ChunkSize}
}

// IngestDocuments loads, chunks and embeds the documents named by paths and
// installs the new index on sess. On success the history is reset; on
// failure sess is left untouched.
func (s *RAGService) IngestDocuments(ctx context.Context, sess *Session, paths []string) (IngestReport, error) {
	start := time.Now()
	log := s.logger.With("session", sess.ID)

	docs, err := s.loader.Load(paths)
	if err != nil {
		return IngestReport{}, err
	}
	if len(docs) == 0 {
		return IngestReport{}, fmt.Errorf("%w in %s", domain.ErrNoDocuments, strings.Join(paths, ", "))
	}

	var (
		report IngestReport
		all    []domain.Chunk
		corpus strings.Builder
	)
	for _, d := range docs {
		cleaned := chunker.Clean(d.Content)
		if cleaned == "" {
			log.Info("skipping document without text", "document", d.Name)
			report.Skipped = append(report.Skipped, d.Name)
			continue
		}
		chunks, err := s.chunker.Chunk(d)
		if err != nil {
			return IngestReport{}, fmt.Errorf("chunking %s: %w", d.Name, err)
		}
		report.Documents = append(report.Documents, DocumentReport{
			Name:       d.Name,
			RawChars:   utf8.RuneCountInString(d.Content),
			CleanChars: utf8.RuneCountInString(cleaned),
			Chunks:     len(chunks),
		})
		log.Debug("document chunked", "document", d.Name, "chunks", len(chunks))
		all = append(all, chunks...)
		corpus.WriteString(cleaned)
		corpus.WriteString("\n")
	}

	emb, err := s.newEmbedder()
	if err != nil {
		return IngestReport{}, fmt.Errorf("creating embedder: %w", err)
	}
	ix, err := retrieval.Build(ctx, all, emb)
	if err != nil {
		return IngestReport{}, err
	}
	if ix.Len() == 0 {
		log.Warn("no chunks to index", "documents", len(docs))
	}

	report.TotalChunks = ix.Len()
	report.Dimension = ix.Dimension()
	if s.summarizer != nil && corpus.Len() > 0 {
		summary, err := s.summarizer.Summarize(corpus.String(), s.opts.SummaryMaxSentences)
		if err != nil {
			log.Warn("summarizing corpus", "error", err)
		}
		report.Summary = summary
	}

	sess.index = ix
	sess.History = nil
	sess.Summary = report.Summary
	sess.ModelName = ix.EmbedderName()

	log.Info("documents processed",
		"documents", len(report.Documents),
		"skipped", len(report.Skipped),
		"chunks", report.TotalChunks,
		"dimension", report.Dimension,
		"embedder", emb.Name(),
		"elapsed", time.Since(start),
	)
	return report, nil
}

// Ask answers question within sess and appends the pair to its history.
// The first question is answered from retrieved excerpts alone; follow-ups
// compress recent history, expand the question and retrieve with the
// expanded text. Completion failures are reported as notices and yield
// empty text; structural failures such as an empty index are returned.
func (s *RAGService) Ask(ctx context.Context, sess *Session, question string) (*Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if !sess.Ready() {
		return nil, domain.ErrNoIndex
	}
	log := s.logger.With("session", sess.ID)

	turn := &Turn{Question: question}
	notify := func(stage string, err error) {
		log.Warn("service call degraded", "stage", stage, "error", err)
		turn.Notices = append(turn.Notices, Notice{Stage: stage, Err: err})
	}

	if len(sess.History) == 0 {
		results, err := s.retrieve(ctx, sess, question, notify)
		if err != nil {
			return nil, err
		}
		turn.Results = results
		turn.Prompt = prompt.RenderFirstTurn(s.opts.Instruction, results, question)
	} else {
		turn.FollowUp = true
		pairs := conversation.SelectRecentPairs(sess.History, s.opts.MaxHistoryTokens, s.opts.MaxHistoryPairs)
		log.Debug("history selected", "pairs", len(pairs), "history", len(sess.History))

		turn.CompressedContext = conversation.Compress(ctx, pairs, s.completer, notify)
		turn.ExpandedQuestion = conversation.Expand(ctx, question, turn.CompressedContext, s.completer, notify)

		results, err := s.retrieve(ctx, sess, turn.ExpandedQuestion, notify)
		if err != nil {
			return nil, err
		}
		turn.Results = results
		turn.Prompt = prompt.RenderFollowUp(turn.CompressedContext, turn.ExpandedQuestion, results)
	}

	turn.Answer = llm.Ask(ctx, s.completer, StageAnswer, turn.Prompt, notify)
	sess.History = append(sess.History, domain.QAPair{Question: question, Answer: turn.Answer})
	return turn, nil
}

// Search retrieves up to topK excerpts for query without involving the
// completion service. A non-positive topK uses the configured default.
func (s *RAGService) Search(ctx context.Context, sess *Session, query string, topK int) ([]domain.RetrievedResult, error) {
	if !sess.Ready() {
		return nil, domain.ErrNoIndex
	}
	if topK <= 0 {
		topK = s.opts.TopK
	}
	return sess.index.Retrieve(ctx, query, topK)
}

// retrieve degrades a failed query embedding call to zero excerpts.
func (s *RAGService) retrieve(ctx context.Context, sess *Session, query string, notify llm.Notifier) ([]domain.RetrievedResult, error) {
	results, err := sess.index.Retrieve(ctx, query, s.opts.TopK)
	if errors.Is(err, domain.ErrServiceCall) {
		notify(StageRetrieve, err)
		return nil, nil
	}
	return results, err
}

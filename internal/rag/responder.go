// Package rag orchestrates retrieval-augmented answering: passage retrieval,
// grounded generation, the ungrounded-answer sentinel contract, and citation
// formatting.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stackguia/stackguia/internal/knowledge"
)

// Retriever is the semantic-retrieval dependency. *knowledge.Store satisfies
// it; tests substitute fakes. An empty result means "no relevant context"
// and is not an error.
type Retriever interface {
	Search(ctx context.Context, query string) ([]knowledge.Passage, error)
}

// Generator produces a natural-language answer from a question and the
// retrieved passages.
type Generator interface {
	Generate(ctx context.Context, question string, passages []knowledge.Passage) (string, error)
}

// Response is the outcome of one RAG attempt.
type Response struct {
	Answer    string
	Citations []Citation
	Grounded  bool
}

// Responder answers questions from the passage index.
// Safe for concurrent use.
type Responder struct {
	retriever Retriever
	generator Generator
	sentinel  string
	window    int
	logger    *slog.Logger
}

// ResponderConfig configures NewResponder.
type ResponderConfig struct {
	// Sentinel is the exact phrase meaning "I don't know", compared after
	// trimming the answer and stripping trailing ".", "!" and "?".
	// Default "Não sei". Kept configurable rather than scattered as a
	// literal; the exact-match behavior itself is a compatibility contract.
	Sentinel string

	// ExcerptWindow is the citation excerpt width. Default 240.
	ExcerptWindow int

	Logger *slog.Logger
}

// NewResponder creates a Responder. retriever and generator may be nil when
// the system runs without an index; Answer then degrades to the sentinel
// response instead of failing.
func NewResponder(retriever Retriever, generator Generator, cfg ResponderConfig) *Responder {
	sentinel := cfg.Sentinel
	if sentinel == "" {
		sentinel = "Não sei"
	}
	window := cfg.ExcerptWindow
	if window <= 0 {
		window = DefaultExcerptWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Responder{
		retriever: retriever,
		generator: generator,
		sentinel:  sentinel,
		window:    window,
		logger:    logger,
	}
}

// sentinelAnswer is the user-facing form of the sentinel ("Não sei.").
func (r *Responder) sentinelAnswer() string {
	return r.sentinel + "."
}

// ungrounded builds the no-answer response.
func (r *Responder) ungrounded() Response {
	return Response{
		Answer:    r.sentinelAnswer(),
		Citations: []Citation{},
		Grounded:  false,
	}
}

// Answer runs retrieval and generation for one question.
//
// Outcomes:
//   - retrieval unconfigured or no relevant passages: ungrounded sentinel
//     response, nil error;
//   - generated answer equals the sentinel phrase: ungrounded, nil error;
//   - retrieval or generation failure: zero Response and the error.
func (r *Responder) Answer(ctx context.Context, question string) (Response, error) {
	if r.retriever == nil || r.generator == nil {
		r.logger.Warn("rag not configured, returning ungrounded response")
		return r.ungrounded(), nil
	}

	passages, err := r.retriever.Search(ctx, question)
	if err != nil {
		return Response{}, fmt.Errorf("retrieving passages: %w", err)
	}

	if len(passages) == 0 {
		r.logger.Debug("no relevant passages found", "question_length", len(question))
		return r.ungrounded(), nil
	}

	answer, err := r.generator.Generate(ctx, question, passages)
	if err != nil {
		return Response{}, fmt.Errorf("generating answer: %w", err)
	}

	text := strings.TrimSpace(answer)
	if r.isSentinel(text) {
		r.logger.Debug("generation returned the unknown sentinel")
		return r.ungrounded(), nil
	}

	return Response{
		Answer:    text,
		Citations: FormatCitations(passages, question, r.window),
		Grounded:  true,
	}, nil
}

// isSentinel reports whether the trimmed answer, with trailing sentence
// punctuation stripped, exactly equals the sentinel phrase. The comparison
// is deliberately string-exact: it is the only signal separating "found
// nothing useful" from a real answer.
func (r *Responder) isSentinel(text string) bool {
	return strings.TrimRight(text, ".!?") == r.sentinel
}

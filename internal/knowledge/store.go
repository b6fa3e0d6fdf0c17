// Package knowledge manages the passage index with vector search backed by
// PostgreSQL + pgvector. Embeddings are generated through a Genkit
// ai.Embedder; similarity search applies a relevance threshold and a result
// cap, and an empty result is a valid outcome, not an error.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"
)

// Querier defines the database operations Store depends on. The interface is
// defined here, by the consumer, so tests can substitute a mock; the pgx
// implementation lives in queries.go.
type Querier interface {
	// UpsertPassage inserts or replaces one indexed passage.
	UpsertPassage(ctx context.Context, arg UpsertPassageParams) error

	// SearchPassages returns the closest passages by cosine distance.
	SearchPassages(ctx context.Context, embedding pgvector.Vector, limit int32) ([]PassageRow, error)

	// CountPassages counts all indexed passages.
	CountPassages(ctx context.Context) (int64, error)
}

// UpsertPassageParams carries one passage plus its embedding.
type UpsertPassageParams struct {
	ID        string
	Content   string
	Source    string
	Page      int32
	Embedding pgvector.Vector
}

// PassageRow is one search result row.
type PassageRow struct {
	ID      string
	Content string
	Source  string
	Page    int32
	Score   float32
}

// Options configures search behavior.
type Options struct {
	// ScoreThreshold filters out passages below this cosine similarity.
	ScoreThreshold float32

	// TopK caps the number of passages returned. Default 8.
	TopK int32

	// QueryTimeout bounds embedding plus search per call. Default 10s.
	QueryTimeout time.Duration
}

// Store provides Add and Search over the passage index.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	queries   Querier
	embedder  ai.Embedder
	threshold float32
	topK      int32
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Store.
func New(querier Querier, embedder ai.Embedder, opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = 8
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}

	return &Store{
		queries:   querier,
		embedder:  embedder,
		threshold: opts.ScoreThreshold,
		topK:      opts.TopK,
		timeout:   opts.QueryTimeout,
		logger:    logger,
	}
}

// Add embeds a passage's content and upserts it into the index.
func (s *Store) Add(ctx context.Context, doc Doc) error {
	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding passage %q: %w", doc.ID, err)
	}

	err = s.queries.UpsertPassage(ctx, UpsertPassageParams{
		ID:        doc.ID,
		Content:   doc.Content,
		Source:    doc.Source,
		Page:      int32(doc.Page),
		Embedding: embedding,
	})
	if err != nil {
		return fmt.Errorf("upserting passage %q: %w", doc.ID, err)
	}

	s.logger.Debug("indexed passage", "id", doc.ID, "source", doc.Source, "page", doc.Page)
	return nil
}

// Search returns the passages most similar to the query, in similarity order,
// filtered to the configured score threshold and capped at TopK. An empty
// slice means "no relevant context" and is not an error.
func (s *Store) Search(ctx context.Context, query string) ([]Passage, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.queries.SearchPassages(queryCtx, embedding, s.topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	passages := make([]Passage, 0, len(rows))
	for _, row := range rows {
		if row.Score < s.threshold {
			continue
		}
		passages = append(passages, Passage{
			ID:      row.ID,
			Content: row.Content,
			Source:  row.Source,
			Page:    int(row.Page),
			Score:   row.Score,
		})
	}

	s.logger.Debug("retrieval complete",
		"candidates", len(rows),
		"relevant", len(passages),
		"threshold", s.threshold,
	)

	return passages, nil
}

// Count returns the total number of indexed passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountPassages(ctx)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return int(count), nil
}

// embed generates the embedding vector for one text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("empty embedding returned")
	}

	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

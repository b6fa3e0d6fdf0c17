package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SQL for the passages table; schema in db/migrations.
const (
	upsertPassageSQL = `INSERT INTO passages (id, content, source, page, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    content = EXCLUDED.content,
    source = EXCLUDED.source,
    page = EXCLUDED.page,
    embedding = EXCLUDED.embedding,
    updated_at = now()`

	// Cosine similarity = 1 - cosine distance (<=> operator).
	searchPassagesSQL = `SELECT id, content, source, page, 1 - (embedding <=> $1) AS score
FROM passages
ORDER BY embedding <=> $1
LIMIT $2`

	countPassagesSQL = `SELECT count(*) FROM passages`
)

// PgxQuerier implements Querier on a pgx connection pool.
// The pool must have pgvector types registered (see app.Setup).
type PgxQuerier struct {
	pool *pgxpool.Pool
}

// NewPgxQuerier wraps a pool.
func NewPgxQuerier(pool *pgxpool.Pool) *PgxQuerier {
	return &PgxQuerier{pool: pool}
}

// UpsertPassage inserts or replaces one indexed passage.
func (q *PgxQuerier) UpsertPassage(ctx context.Context, arg UpsertPassageParams) error {
	_, err := q.pool.Exec(ctx, upsertPassageSQL,
		arg.ID, arg.Content, arg.Source, arg.Page, arg.Embedding)
	if err != nil {
		return fmt.Errorf("upsert passage: %w", err)
	}
	return nil
}

// SearchPassages returns the closest passages by cosine distance.
func (q *PgxQuerier) SearchPassages(ctx context.Context, embedding pgvector.Vector, limit int32) ([]PassageRow, error) {
	rows, err := q.pool.Query(ctx, searchPassagesSQL, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}
	defer rows.Close()

	var results []PassageRow
	for rows.Next() {
		var row PassageRow
		if err := rows.Scan(&row.ID, &row.Content, &row.Source, &row.Page, &row.Score); err != nil {
			return nil, fmt.Errorf("scan passage row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passage rows: %w", err)
	}

	return results, nil
}

// CountPassages counts all indexed passages.
func (q *PgxQuerier) CountPassages(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, countPassagesSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count passages: %w", err)
	}
	return count, nil
}

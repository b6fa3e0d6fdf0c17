// Package app wires the application together: database pool, Genkit,
// knowledge store, triage classifier, RAG responder and the question flow.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackguia/stackguia/internal/config"
	"github.com/stackguia/stackguia/internal/graph"
	"github.com/stackguia/stackguia/internal/index"
	"github.com/stackguia/stackguia/internal/knowledge"
	"github.com/stackguia/stackguia/internal/log"
	"github.com/stackguia/stackguia/internal/rag"
	"github.com/stackguia/stackguia/internal/triage"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Knowledge  *knowledge.Store
	Classifier *triage.Classifier
	Responder  *rag.Responder
	Machine    *graph.Machine

	dbCleanup func()
}

// Close releases all resources. Safe to call on a partially built App.
func (a *App) Close() error {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("shutting down application")

	if a.dbCleanup != nil {
		a.dbCleanup()
		logger.Info("database pool closed")
	}

	return nil
}

// NewIndexBuilder creates the PDF indexer backed by the knowledge store.
func (a *App) NewIndexBuilder() *index.Builder {
	return index.NewBuilder(a.Knowledge, index.BuilderConfig{
		DocsDir:      a.Config.DocsDir,
		ChunkSize:    a.Config.ChunkSize,
		ChunkOverlap: a.Config.ChunkOverlap,
		Logger:       a.Logger,
	})
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/stackguia/stackguia/db"
	"github.com/stackguia/stackguia/internal/config"
	"github.com/stackguia/stackguia/internal/graph"
	"github.com/stackguia/stackguia/internal/knowledge"
	"github.com/stackguia/stackguia/internal/log"
	"github.com/stackguia/stackguia/internal/rag"
	"github.com/stackguia/stackguia/internal/triage"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Knowledge = knowledge.New(knowledge.NewPgxQuerier(pool), embedder, knowledge.Options{
		ScoreThreshold: cfg.ScoreThreshold,
		TopK:           int32(cfg.TopK),
		QueryTimeout:   cfg.RetrievalTimeout,
	}, logger)

	a.Classifier = triage.NewClassifier(g, triage.ClassifierConfig{
		ModelName:   cfg.FullModelName(),
		Temperature: cfg.Temperature,
		Timeout:     cfg.TriageTimeout,
		Logger:      logger,
	})

	generator := rag.NewGeminiGenerator(g, rag.GeneratorConfig{
		ModelName:   cfg.FullModelName(),
		Temperature: cfg.Temperature,
		Timeout:     cfg.GenerateTimeout,
		Logger:      logger,
	})

	a.Responder = rag.NewResponder(a.Knowledge, generator, rag.ResponderConfig{
		Sentinel:      cfg.Sentinel,
		ExcerptWindow: cfg.ExcerptWindow,
		Logger:        logger,
	})

	a.Machine = graph.New(a.Classifier, a.Responder, graph.Config{
		EscalationKeywords: cfg.EscalationKeywords,
		Logger:             logger,
	})

	return a, nil
}

// provideGenkit initializes Genkit with the Google AI plugin. The plugin
// reads GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	return g, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
// Every connection registers the pgvector codec so embeddings scan natively.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/stackguia/stackguia/internal/app"
	"github.com/stackguia/stackguia/internal/config"
)

// runIndex builds the knowledge base from the configured PDF directory.
func runIndex() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateOnline(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("building knowledge base", "docs_dir", cfg.DocsDir)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	result, err := a.NewIndexBuilder().Build(ctx)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	fmt.Printf("Indexed %d passages from %d pages across %d files\n",
		result.Passages, result.Pages, result.Files)
	return nil
}

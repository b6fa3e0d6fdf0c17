// Package cmd provides the CLI commands for the StackGuia service.
//
// Commands:
//   - serve: HTTP API server exposing the question endpoint
//   - index: build the knowledge base from the PDF handouts
//
// Signal handling and graceful shutdown are implemented for serve via
// context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/stackguia/stackguia/internal/log"
)

// Execute is the main entry point for the stackguia CLI.
func Execute() error {
	// A local .env is convenient in development; absence is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading .env file", "error", err)
	}

	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level, JSON: os.Getenv("LOG_JSON") != ""}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "index":
		return runIndex()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("StackGuia - assistente de dúvidas para devs iniciantes")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  stackguia serve [addr]  Start HTTP API server (default: 127.0.0.1:5000)")
	fmt.Println("  stackguia index         Index the PDF handouts into the knowledge base")
	fmt.Println("  stackguia --version     Show version information")
	fmt.Println("  stackguia --help        Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key")
	fmt.Println("  DATABASE_URL       Optional: PostgreSQL URL override")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
	fmt.Println("  LOG_JSON           Optional: Log in JSON format")
}

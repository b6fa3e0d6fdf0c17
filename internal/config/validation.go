package config

import (
	"fmt"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
// API key presence is checked separately (ValidateOnline) so that offline
// tooling can load configuration without credentials.
func (c *Config) Validate() error {
	// Model configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Temperature range: 0.0 (deterministic) to 2.0
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	// Timeouts on external calls must be positive
	if c.TriageTimeout <= 0 {
		return fmt.Errorf("%w: triage_timeout must be positive, got %s", ErrInvalidTimeout, c.TriageTimeout)
	}
	if c.RetrievalTimeout <= 0 {
		return fmt.Errorf("%w: retrieval_timeout must be positive, got %s", ErrInvalidTimeout, c.RetrievalTimeout)
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("%w: generate_timeout must be positive, got %s", ErrInvalidTimeout, c.GenerateTimeout)
	}

	// Retrieval configuration
	if c.ScoreThreshold < 0.0 || c.ScoreThreshold > 1.0 {
		return fmt.Errorf("%w: must be between 0.0 and 1.0, got %.2f", ErrInvalidScoreThreshold, c.ScoreThreshold)
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.ExcerptWindow < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidExcerptWindow, c.ExcerptWindow)
	}

	// Routing configuration
	if len(c.EscalationKeywords) == 0 {
		return fmt.Errorf("%w: escalation_keywords cannot be empty", ErrMissingEscalationKeywords)
	}
	if c.Sentinel == "" {
		return fmt.Errorf("%w: sentinel cannot be empty", ErrMissingSentinel)
	}

	// Chunking configuration
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrInvalidChunking, c.ChunkOverlap)
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	// Modern SSL modes only; allow/prefer are deprecated.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}

// ValidateOnline additionally requires a Gemini API key in the environment.
// serve and index both talk to the Gemini API, so they fail fast without one.
func (c *Config) ValidateOnline() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !HasAPIKey() {
		return fmt.Errorf("%w: set GEMINI_API_KEY or GOOGLE_API_KEY\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}
	return nil
}

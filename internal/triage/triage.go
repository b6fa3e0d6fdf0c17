// Package triage classifies incoming questions into one of three handling
// paths before any answer is attempted.
//
// The classifier asks the Gemini model for structured output and validates
// the decoded decision and urgency at the boundary. A malformed or
// out-of-vocabulary response is a classifier error, never a silent default:
// the routing layer decides what an error means, not this package.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

var (
	// ErrClassification indicates the classification call itself failed.
	ErrClassification = errors.New("triage classification failed")

	// ErrMalformedOutput indicates the model returned structured output that
	// could not be decoded into a Result.
	ErrMalformedOutput = errors.New("malformed triage output")

	// ErrInvalidDecision indicates a decision outside the known vocabulary.
	ErrInvalidDecision = errors.New("invalid triage decision")

	// ErrInvalidUrgency indicates an urgency outside the known vocabulary.
	ErrInvalidUrgency = errors.New("invalid triage urgency")
)

// Decision is the routing decision produced by triage. The literals are
// part of the wire contract with existing clients.
type Decision string

const (
	DecisionAutoResolve Decision = "AUTO_RESOLVER"
	DecisionRequestInfo Decision = "PEDIR_INFO"
	DecisionEscalate    Decision = "ABRIR_CHAMADO"
)

// IsValid reports whether the decision is one of the enumerated values.
func (d Decision) IsValid() bool {
	switch d {
	case DecisionAutoResolve, DecisionRequestInfo, DecisionEscalate:
		return true
	default:
		return false
	}
}

// Urgency is the classifier's urgency estimate for the question.
type Urgency string

const (
	UrgencyLow    Urgency = "BAIXA"
	UrgencyMedium Urgency = "MEDIA"
	UrgencyHigh   Urgency = "ALTA"
)

// IsValid reports whether the urgency is one of the enumerated values.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	default:
		return false
	}
}

// Result is the structured triage output for one question.
// Produced once per request and never mutated afterward.
type Result struct {
	Decision      Decision `json:"decisao"`
	Urgency       Urgency  `json:"urgencia"`
	MissingFields []string `json:"campos_faltantes"`
}

// Validate checks that decision and urgency carry enumerated values.
func (r *Result) Validate() error {
	if !r.Decision.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, r.Decision)
	}
	if !r.Urgency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidUrgency, r.Urgency)
	}
	return nil
}

// SystemPrompt instructs the model to emit the triage JSON.
const SystemPrompt = `Você é um consultor de tecnologias web para desenvolvedores iniciantes. ` +
	`Dada a pergunta do usuário, retorne SOMENTE um JSON com:
{
  "decisao": "AUTO_RESOLVER" | "PEDIR_INFO" | "ABRIR_CHAMADO",
  "urgencia": "BAIXA" | "MEDIA" | "ALTA",
  "campos_faltantes": ["..."]
}
Regras:
- **AUTO_RESOLVER**: Perguntas claras sobre tecnologias, frameworks, ou escolhas de stack para projetos web simples.
- **PEDIR_INFO**: Perguntas vagas sobre desenvolvimento sem contexto específico do projeto ou nível de experiência.
- **ABRIR_CHAMADO**: Pedidos de mentoria personalizada, code review, ou ajuda com projetos específicos complexos.
Analise a pergunta e decida a ação mais apropriada.`

// Classifier produces a Result for free-text questions using Genkit
// structured output. Safe for concurrent use.
type Classifier struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// ClassifierConfig configures NewClassifier.
type ClassifierConfig struct {
	ModelName   string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	Temperature float32
	Timeout     time.Duration // per-call deadline on the model request
	Logger      *slog.Logger  // nil = slog.Default()
}

// NewClassifier creates a Classifier bound to an initialized Genkit instance.
func NewClassifier(g *genkit.Genkit, cfg ClassifierConfig) *Classifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Classifier{
		g:           g,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Classify maps a free-text question to a validated Result.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("classifying question", "length", len(text))

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem(SystemPrompt),
		ai.WithPrompt(text),
		ai.WithOutputType(Result{}),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(c.temperature),
		}),
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	var out Result
	if err := resp.Output(&out); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	if err := out.Validate(); err != nil {
		return Result{}, err
	}

	if out.MissingFields == nil {
		out.MissingFields = []string{}
	}

	c.logger.Debug("triage complete",
		"decision", out.Decision,
		"urgency", out.Urgency,
		"missing_fields", len(out.MissingFields),
	)

	return out, nil
}

package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/stackguia/stackguia/internal/knowledge"
)

// AnswerSystemPrompt defines the assistant persona and answer formatting
// rules. The persona text is part of the product's voice and must stay in
// Portuguese.
const AnswerSystemPrompt = "Você é um consultor de desenvolvimento web amigável e encorajador, especializado em ajudar iniciantes. " +
	"Seu tom deve ser didático e paciente, como se estivesse explicando um conceito novo para um aluno pela primeira vez." +
	" Use o contexto fornecido para formular suas respostas. Se o contexto não tiver a definição exata, INTERPRETE as informações disponíveis" +
	" para fornecer uma resposta útil. Sempre explique o 'porquê' das suas recomendações e evite dizer 'não encontrei' se houver informação relacionada." +
	"\n\n**REGRAS DE FORMATAÇÃO DA RESPOSTA:**" +
	"\n1. **Estrutura:** Separe os parágrafos com uma linha em branco (duas quebras de linha). A resposta deve ter entre 2 a 4 parágrafos curtos." +
	"\n2. **Clareza:** Mantenha a resposta concisa e focada na pergunta do usuário." +
	"\n3. **Estilo:** Use apenas texto puro. Não use Markdown (como asteriscos para negrito, hífens para listas, etc.)." +
	"\n4. **Metalinguagem:** **Não mencione o 'contexto' ou a 'base de conhecimento' em sua resposta.** Fale de forma natural, como se o conhecimento fosse seu."

// ErrNoModel indicates the generator was built without a Genkit instance.
var ErrNoModel = errors.New("rag: no model configured")

// GeminiGenerator produces grounded answers with a Gemini model through
// Genkit, passing the retrieved passages as context documents.
type GeminiGenerator struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// GeneratorConfig configures NewGeminiGenerator.
type GeneratorConfig struct {
	// ModelName is a fully qualified Genkit model name
	// (e.g. "googleai/gemini-2.5-flash").
	ModelName string

	// Temperature for answer generation. Zero keeps answers deterministic.
	Temperature float32

	// Timeout bounds a single generation call. Default 60s.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewGeminiGenerator creates a GeminiGenerator.
func NewGeminiGenerator(g *genkit.Genkit, cfg GeneratorConfig) *GeminiGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiGenerator{
		g:           g,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Generate answers the question from the given passages.
func (gg *GeminiGenerator) Generate(ctx context.Context, question string, passages []knowledge.Passage) (string, error) {
	if gg.g == nil {
		return "", ErrNoModel
	}

	ctx, cancel := context.WithTimeout(ctx, gg.timeout)
	defer cancel()

	docs := make([]*ai.Document, 0, len(passages))
	for _, p := range passages {
		docs = append(docs, ai.DocumentFromText(p.Content, map[string]any{
			"source": p.Source,
			"page":   p.Page,
		}))
	}

	start := time.Now()
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithSystem(AnswerSystemPrompt),
		ai.WithPrompt("Pergunta sobre desenvolvimento web: "+question),
		ai.WithDocs(docs...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(gg.temperature),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating grounded answer: %w", err)
	}

	gg.logger.Debug("answer generated",
		"model", gg.modelName,
		"passages", len(passages),
		"duration", time.Since(start))

	return resp.Text(), nil
}

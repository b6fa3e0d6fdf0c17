package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stackguia/stackguia/internal/rag"
	"github.com/stackguia/stackguia/internal/triage"
)

// maxDescriptionRunes bounds the question excerpt echoed in ticket
// descriptions.
const maxDescriptionRunes = 140

// DefaultEscalationKeywords force a ticket when auto-resolution fails and
// the question mentions any of them. Matching is case-insensitive substring.
var DefaultEscalationKeywords = []string{
	"aprovação",
	"exceção",
	"liberação",
	"abrir ticket",
	"abrir chamado",
	"acesso especial",
}

// Classifier decides how a question should be handled.
// *triage.Classifier satisfies it.
type Classifier interface {
	Classify(ctx context.Context, text string) (triage.Result, error)
}

// Responder attempts to answer a question from the knowledge base.
// *rag.Responder satisfies it.
type Responder interface {
	Answer(ctx context.Context, question string) (rag.Response, error)
}

// Machine runs the triage-and-routing flow for one question at a time.
// Safe for concurrent use.
type Machine struct {
	classifier Classifier
	responder  Responder
	keywords   []string
	logger     *slog.Logger
}

// Config configures New.
type Config struct {
	// EscalationKeywords overrides DefaultEscalationKeywords when non-empty.
	EscalationKeywords []string

	Logger *slog.Logger
}

// New creates a Machine.
func New(classifier Classifier, responder Responder, cfg Config) *Machine {
	keywords := cfg.EscalationKeywords
	if len(keywords) == 0 {
		keywords = DefaultEscalationKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Machine{
		classifier: classifier,
		responder:  responder,
		keywords:   lowered,
		logger:     logger,
	}
}

// maxSteps bounds a run; the flow visits at most three nodes before NodeDone.
const maxSteps = 8

// Run processes one question through the flow and returns the final state.
// Node failures are absorbed into the state as ActionError; the returned
// error is non-nil only when the context ends before the flow does.
func (m *Machine) Run(ctx context.Context, question string) (State, error) {
	state := State{
		Question:  question,
		Citations: []rag.Citation{},
	}

	node := NodeTriage
	for steps := 0; node != NodeDone; steps++ {
		if steps >= maxSteps {
			return State{}, fmt.Errorf("flow exceeded %d steps at node %q", maxSteps, node)
		}
		if err := ctx.Err(); err != nil {
			return State{}, fmt.Errorf("flow interrupted at node %q: %w", node, err)
		}

		m.logger.Debug("running node", "node", node)
		state.apply(m.runNode(ctx, node, state))
		node = m.next(node, state)
	}

	m.finalize(&state)
	return state, nil
}

// runNode executes one node against the current state.
func (m *Machine) runNode(ctx context.Context, node Node, s State) Update {
	switch node {
	case NodeTriage:
		return m.runTriage(ctx, s)
	case NodeAutoResolve:
		return m.runAutoResolve(ctx, s)
	case NodeRequestInfo:
		return m.runRequestInfo(s)
	case NodeEscalate:
		return m.runEscalate(s)
	default:
		return errorUpdate(fmt.Sprintf("Erro interno: nó desconhecido %q.", node))
	}
}

// next is the transition table. A set ActionError always terminates.
func (m *Machine) next(node Node, s State) Node {
	if s.FinalAction == ActionError {
		return NodeDone
	}

	switch node {
	case NodeTriage:
		if s.Triage == nil {
			return NodeDone
		}
		switch s.Triage.Decision {
		case triage.DecisionAutoResolve:
			return NodeAutoResolve
		case triage.DecisionRequestInfo:
			return NodeRequestInfo
		case triage.DecisionEscalate:
			return NodeEscalate
		}
		return NodeDone

	case NodeAutoResolve:
		if s.RAGSuccess {
			return NodeDone
		}
		if m.mentionsEscalationKeyword(s.Question) {
			m.logger.Debug("auto-resolution failed, escalation keyword found")
			return NodeEscalate
		}
		m.logger.Debug("auto-resolution failed, requesting more information")
		return NodeRequestInfo

	default:
		return NodeDone
	}
}

func (m *Machine) runTriage(ctx context.Context, s State) Update {
	if m.classifier == nil {
		return errorUpdate("Ocorreu um erro durante a triagem: classificador não configurado")
	}

	result, err := m.classifier.Classify(ctx, s.Question)
	if err != nil {
		m.logger.Error("triage failed", "error", err)
		return errorUpdate(fmt.Sprintf("Ocorreu um erro durante a triagem: %v", err))
	}

	return Update{Triage: &result}
}

func (m *Machine) runAutoResolve(ctx context.Context, s State) (u Update) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("auto-resolution panicked", "panic", r)
			u = errorUpdate(fmt.Sprintf("Ocorreu um erro durante o auto-resolver: %v", r))
		}
	}()

	if m.responder == nil {
		return errorUpdate("Ocorreu um erro durante o auto-resolver: respondedor não configurado")
	}

	resp, err := m.responder.Answer(ctx, s.Question)
	if err != nil {
		m.logger.Error("auto-resolution failed", "error", err)
		return errorUpdate(fmt.Sprintf("Ocorreu um erro durante o auto-resolver: %v", err))
	}

	u = Update{
		Answer:     ptr(resp.Answer),
		Citations:  resp.Citations,
		RAGSuccess: ptr(resp.Grounded),
	}
	if resp.Grounded {
		u.FinalAction = ptr(ActionAutoResolve)
	}
	return u
}

func (m *Machine) runRequestInfo(s State) Update {
	if s.Triage == nil {
		return errorUpdate("Erro interno: Resultado da triagem não disponível.")
	}

	detail := "Tema e contexto específico"
	if len(s.Triage.MissingFields) > 0 {
		detail = strings.Join(s.Triage.MissingFields, ",")
	}

	return Update{
		Answer:      ptr("Para avançar, preciso que detalhe: " + detail),
		Citations:   []rag.Citation{},
		FinalAction: ptr(ActionRequestInfo),
	}
}

func (m *Machine) runEscalate(s State) Update {
	if s.Triage == nil {
		return errorUpdate("Erro interno: Resultado da triagem não disponível.")
	}

	answer := fmt.Sprintf("Abrindo chamado com urgência %s. Descrição: %s",
		s.Triage.Urgency, truncateRunes(s.Question, maxDescriptionRunes))

	return Update{
		Answer:      ptr(answer),
		Citations:   []rag.Citation{},
		FinalAction: ptr(ActionEscalate),
	}
}

// finalize guarantees every returned state carries a final action.
func (m *Machine) finalize(s *State) {
	if s.FinalAction != "" {
		return
	}
	m.logger.Error("flow finished without a final action")
	s.FinalAction = ActionError
	if s.Answer == "" {
		s.Answer = "Erro interno: fluxo encerrado sem ação final."
	}
}

func (m *Machine) mentionsEscalationKeyword(question string) bool {
	q := strings.ToLower(question)
	for _, k := range m.keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

func errorUpdate(answer string) Update {
	return Update{
		Answer:      ptr(answer),
		FinalAction: ptr(ActionError),
	}
}

// truncateRunes cuts s at n runes, never mid-codepoint.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

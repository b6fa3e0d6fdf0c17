// Package graph implements the question-handling flow as an explicit state
// machine: triage first, then auto-resolution, an information request or a
// ticket, with a table-driven transition function between nodes.
package graph

import (
	"github.com/stackguia/stackguia/internal/rag"
	"github.com/stackguia/stackguia/internal/triage"
)

// Action is the terminal outcome of one run.
type Action string

const (
	ActionAutoResolve Action = "AUTO_RESOLVER"
	ActionRequestInfo Action = "PEDIR_INFO"
	ActionEscalate    Action = "ABRIR_CHAMADO"
	ActionError       Action = "ERRO"
)

// Node identifies a step of the flow.
type Node string

const (
	NodeTriage      Node = "triagem"
	NodeAutoResolve Node = "auto_resolver"
	NodeRequestInfo Node = "pedir_info"
	NodeEscalate    Node = "abrir_chamado"
	NodeDone        Node = "fim"
)

// State is the accumulated result of a run. It is also the wire format of
// the ask endpoint, hence the Portuguese JSON keys.
type State struct {
	Question    string         `json:"pergunta"`
	Triage      *triage.Result `json:"triagem,omitempty"`
	Answer      string         `json:"resposta"`
	Citations   []rag.Citation `json:"citacoes"`
	RAGSuccess  bool           `json:"rag_sucesso"`
	FinalAction Action         `json:"acao_final"`
}

// Update is a partial state produced by one node. Nil fields leave the
// current value untouched; nodes never overwrite what they did not set.
type Update struct {
	Triage      *triage.Result
	Answer      *string
	Citations   []rag.Citation
	RAGSuccess  *bool
	FinalAction *Action
}

// apply merges an update into the state.
func (s *State) apply(u Update) {
	if u.Triage != nil {
		s.Triage = u.Triage
	}
	if u.Answer != nil {
		s.Answer = *u.Answer
	}
	if u.Citations != nil {
		s.Citations = u.Citations
	}
	if u.RAGSuccess != nil {
		s.RAGSuccess = *u.RAGSuccess
	}
	if u.FinalAction != nil {
		s.FinalAction = *u.FinalAction
	}
}

func ptr[T any](v T) *T { return &v }

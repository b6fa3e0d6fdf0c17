package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stackguia/stackguia/internal/graph"
)

// maxAskBodyBytes bounds the request body of the ask endpoint.
const maxAskBodyBytes = 64 * 1024

// askRequest is the ask endpoint request body.
type askRequest struct {
	Question string `json:"pergunta"`
}

// askHandler serves POST /perguntar.
type askHandler struct {
	runner Runner
	logger *slog.Logger
}

// ask runs the question through the flow and returns the final state.
func (h *askHandler) ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBodyBytes)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("rejecting malformed ask request", "error", err)
		writeError(w, http.StatusBadRequest, "Pergunta não fornecida")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Pergunta não fornecida")
		return
	}

	requestID, _ := requestIDFromContext(r.Context())
	h.logger.Info("processing question",
		"request_id", requestID,
		"question_length", len(req.Question),
	)

	state, err := h.runner.Run(r.Context(), req.Question)
	if err != nil {
		h.logger.Error("question flow failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("Erro interno ao processar a pergunta: %v", err))
		return
	}

	h.logger.Info("question processed",
		"request_id", requestID,
		"final_action", state.FinalAction,
		"grounded", state.RAGSuccess,
	)
	writeJSON(w, http.StatusOK, state)
}

// Runner executes the question-handling flow. *graph.Machine satisfies it.
type Runner interface {
	Run(ctx context.Context, question string) (graph.State, error)
}

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stackguia/stackguia/internal/graph"
	"github.com/stackguia/stackguia/internal/rag"
)

// fakeRunner returns a canned state or error for every question.
type fakeRunner struct {
	state graph.State
	err   error
	panic bool
	calls int
	last  string
}

func (f *fakeRunner) Run(_ context.Context, question string) (graph.State, error) {
	f.calls++
	f.last = question
	if f.panic {
		panic("runner exploded")
	}
	return f.state, f.err
}

func groundedState(question string) graph.State {
	return graph.State{
		Question: question,
		Answer:   "Flexbox alinha itens ao longo de um eixo.",
		Citations: []rag.Citation{
			{Document: "css.pdf", Page: 2, Excerpt: "flexbox alinha"},
		},
		RAGSuccess:  true,
		FinalAction: graph.ActionAutoResolve,
	}
}

func testServer(t *testing.T, runner Runner) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger: slog.New(slog.DiscardHandler),
		Runner: runner,
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	return srv
}

func TestNewServer_MissingRunner(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: slog.New(slog.DiscardHandler)})
	if err == nil {
		t.Fatal("NewServer(nil runner) expected error, got nil")
	}
}

func TestAsk_Success(t *testing.T) {
	runner := &fakeRunner{state: groundedState("o que é flexbox?")}
	srv := testServer(t, runner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/perguntar",
		strings.NewReader(`{"pergunta": "o que é flexbox?"}`))
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var state graph.State
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if state.FinalAction != graph.ActionAutoResolve {
		t.Errorf("acao_final = %s, want %s", state.FinalAction, graph.ActionAutoResolve)
	}
	if runner.last != "o que é flexbox?" {
		t.Errorf("runner received %q", runner.last)
	}

	body := w.Body.String()
	for _, key := range []string{`"pergunta"`, `"resposta"`, `"citacoes"`, `"rag_sucesso"`, `"acao_final"`} {
		if !strings.Contains(body, key) {
			t.Errorf("response missing key %s in %s", key, body)
		}
	}
}

func TestAsk_MissingQuestion(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty_object", `{}`},
		{"empty_question", `{"pergunta": ""}`},
		{"whitespace_question", `{"pergunta": "   "}`},
		{"invalid_json", `{pergunta`},
		{"empty_body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			srv := testServer(t, runner)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/perguntar", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(w, r)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			var resp errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Error != "Pergunta não fornecida" {
				t.Errorf("error = %q, want %q", resp.Error, "Pergunta não fornecida")
			}
			if runner.calls != 0 {
				t.Errorf("runner called %d times, want 0", runner.calls)
			}
		})
	}
}

func TestAsk_RunnerError(t *testing.T) {
	runner := &fakeRunner{err: context.DeadlineExceeded}
	srv := testServer(t, runner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/perguntar",
		strings.NewReader(`{"pergunta": "qualquer"}`))
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.HasPrefix(resp.Error, "Erro interno ao processar a pergunta: ") {
		t.Errorf("error = %q, want internal error prefix", resp.Error)
	}
}

func TestAsk_RunnerPanicIsRecovered(t *testing.T) {
	runner := &fakeRunner{panic: true}
	srv := testServer(t, runner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/perguntar",
		strings.NewReader(`{"pergunta": "qualquer"}`))
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAsk_MethodNotAllowed(t *testing.T) {
	srv := testServer(t, &fakeRunner{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/perguntar", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestAsk_RequestIDHeader(t *testing.T) {
	runner := &fakeRunner{state: groundedState("pergunta")}
	srv := testServer(t, runner)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/perguntar",
		strings.NewReader(`{"pergunta": "pergunta"}`))
	srv.Handler().ServeHTTP(w, r)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &fakeRunner{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body)
	}
}

func TestReadyEndpoint_NoPool(t *testing.T) {
	srv := testServer(t, &fakeRunner{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:      slog.New(slog.DiscardHandler),
		Runner:      &fakeRunner{},
		CORSOrigins: []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/perguntar", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:      slog.New(slog.DiscardHandler),
		Runner:      &fakeRunner{state: groundedState("q")},
		CORSOrigins: []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/perguntar",
		strings.NewReader(`{"pergunta": "q"}`))
	r.Header.Set("Origin", "http://evil.example")
	srv.Handler().ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

func TestRateLimit(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:    slog.New(slog.DiscardHandler),
		Runner:    &fakeRunner{state: groundedState("q")},
		RateBurst: 2,
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	var last int
	for range 3 {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/perguntar",
			strings.NewReader(`{"pergunta": "q"}`))
		r.RemoteAddr = "203.0.113.7:1234"
		srv.Handler().ServeHTTP(w, r)
		last = w.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want %d", last, http.StatusTooManyRequests)
	}
}

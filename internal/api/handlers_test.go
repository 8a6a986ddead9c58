package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenstack/lumen-rag/internal/models"
	"github.com/lumenstack/lumen-rag/internal/utils"
)

type fakeService struct {
	answer models.Answer
	err    error
	lastQ  models.Query
}

func (f *fakeService) Ask(ctx context.Context, q models.Query) (models.Answer, error) {
	f.lastQ = q
	return f.answer, f.err
}

func postAsk(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)
	return w
}

func TestAskEndpoint(t *testing.T) {
	service := &fakeService{answer: models.Answer{AnswerID: "a1", Text: "grounded answer"}}
	srv := NewServer(":0", service, utils.DiscardLogger())

	w := postAsk(t, srv, `{"query": "battery complaints", "mode": "thinking", "scope": "forum", "history": [{"role": "user", "content": "earlier turn"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var answer models.Answer
	if err := json.Unmarshal(w.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answer.AnswerID != "a1" || answer.Text != "grounded answer" {
		t.Errorf("answer = %+v", answer)
	}
	if service.lastQ.Scope != models.ScopeForum || service.lastQ.Mode != models.ModeThinking {
		t.Errorf("query = %+v", service.lastQ)
	}
	if len(service.lastQ.History) != 1 || service.lastQ.History[0].Content != "earlier turn" {
		t.Errorf("history = %+v", service.lastQ.History)
	}
}

func TestAskEndpointRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing query", `{"scope": "forum"}`},
		{"unknown mode", `{"query": "q", "mode": "stream"}`},
		{"unknown scope", `{"query": "q", "scope": "wiki"}`},
	}

	service := &fakeService{}
	srv := NewServer(":0", service, utils.DiscardLogger())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := postAsk(t, srv, tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestAskEndpointErrorMapping(t *testing.T) {
	t.Run("validation error maps to 400", func(t *testing.T) {
		service := &fakeService{err: utils.NewInvalidInput(utils.OpAsk, "query text cannot be empty")}
		srv := NewServer(":0", service, utils.DiscardLogger())
		if w := postAsk(t, srv, `{"query": "  "}`); w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("stage error without the invalid flag maps to 500", func(t *testing.T) {
		service := &fakeService{err: utils.NewAppError(utils.OpRetrieve, "search backend unreachable", errors.New("dial tcp"))}
		srv := NewServer(":0", service, utils.DiscardLogger())
		w := postAsk(t, srv, `{"query": "q"}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("dial tcp")) {
			t.Error("internal error details leaked to the client")
		}
	})

	t.Run("internal error maps to 500", func(t *testing.T) {
		service := &fakeService{err: errors.New("boom")}
		srv := NewServer(":0", service, utils.DiscardLogger())
		w := postAsk(t, srv, `{"query": "q"}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("boom")) {
			t.Error("internal error details leaked to the client")
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(":0", &fakeService{}, utils.DiscardLogger())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestServerAddress(t *testing.T) {
	srv := NewServer("127.0.0.1:8099", &fakeService{}, utils.DiscardLogger())
	if got := srv.Address(); got != "127.0.0.1:8099" {
		t.Fatalf("Address() = %q", got)
	}
}

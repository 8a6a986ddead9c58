package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lumenstack/lumen-rag/internal/metrics"
	"github.com/lumenstack/lumen-rag/internal/models"
	"github.com/lumenstack/lumen-rag/internal/utils"
)

type fakePipeline struct {
	answer models.Answer
	route  string
	err    error
	lastQ  models.Query
	calls  int
}

func (f *fakePipeline) Ask(ctx context.Context, q models.Query) (models.Answer, string, error) {
	f.calls++
	f.lastQ = q
	route := f.route
	if route == "" {
		route = metrics.RouteGrounded
	}
	return f.answer, route, f.err
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	pipeline := &fakePipeline{}
	s := NewRAGService(utils.DiscardLogger(), pipeline)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Ask(context.Background(), models.Query{Text: text})
		if err == nil {
			t.Errorf("Ask(%q) succeeded, want validation error", text)
			continue
		}
		var appErr *utils.AppError
		if !errors.As(err, &appErr) || !appErr.Invalid || appErr.Op != utils.OpAsk {
			t.Errorf("Ask(%q) error = %v, want invalid-input error from the ask stage", text, err)
		}
	}
	if pipeline.calls != 0 {
		t.Fatalf("pipeline called %d times for invalid input", pipeline.calls)
	}
}

func TestAskAppliesDefaults(t *testing.T) {
	pipeline := &fakePipeline{answer: models.Answer{AnswerID: "a1", Text: "ok"}}
	s := NewRAGService(utils.DiscardLogger(), pipeline)

	answer, err := s.Ask(context.Background(), models.Query{Text: "  battery complaints  "})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if answer.AnswerID != "a1" {
		t.Errorf("answer = %+v", answer)
	}
	if pipeline.lastQ.Text != "battery complaints" {
		t.Errorf("text not trimmed: %q", pipeline.lastQ.Text)
	}
	if pipeline.lastQ.Mode != models.ModeThinking {
		t.Errorf("mode default = %q, want thinking", pipeline.lastQ.Mode)
	}
	if pipeline.lastQ.Scope != models.ScopeInsights {
		t.Errorf("scope default = %q, want insights", pipeline.lastQ.Scope)
	}
}

func TestAskPreservesExplicitModeAndScope(t *testing.T) {
	pipeline := &fakePipeline{answer: models.Answer{Text: "ok"}}
	s := NewRAGService(utils.DiscardLogger(), pipeline)

	_, err := s.Ask(context.Background(), models.Query{
		Text: "q", Mode: models.ModeNonThinking, Scope: models.ScopeMessaging,
	})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if pipeline.lastQ.Mode != models.ModeNonThinking || pipeline.lastQ.Scope != models.ScopeMessaging {
		t.Errorf("query = %+v, explicit mode and scope must pass through", pipeline.lastQ)
	}
}

func TestAskPropagatesPipelineError(t *testing.T) {
	pipeline := &fakePipeline{err: errors.New("context deadline exceeded")}
	s := NewRAGService(utils.DiscardLogger(), pipeline)

	if _, err := s.Ask(context.Background(), models.Query{Text: "q"}); err == nil {
		t.Fatal("expected pipeline error to propagate")
	}
}

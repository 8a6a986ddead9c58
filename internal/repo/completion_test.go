package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumenstack/lumen-rag/internal/models"
)

type capturedCompletionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, reply string, status int, captured *capturedCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestCompleteSendsOrderedMessages(t *testing.T) {
	var captured capturedCompletionRequest
	server := completionServer(t, "  the answer  ", http.StatusOK, &captured)
	defer server.Close()

	c := NewOpenAICompleter(CompletionOptions{
		BaseURL: server.URL + "/v1",
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		Timeout: time.Second,
	})

	got, err := c.Complete(context.Background(), []models.ChatMessage{
		{Role: models.RoleSystem, Content: "system prompt"},
		{Role: models.RoleUser, Content: "earlier question"},
		{Role: models.RoleAssistant, Content: "earlier answer"},
		{Role: "tool", Content: "unknown role"},
		{Role: models.RoleUser, Content: "the question"},
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "the answer" {
		t.Fatalf("reply = %q, want trimmed answer", got)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", captured.Model)
	}
	wantRoles := []string{"system", "user", "assistant", "user", "user"}
	if len(captured.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(captured.Messages), len(wantRoles))
	}
	for i, want := range wantRoles {
		if captured.Messages[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, captured.Messages[i].Role, want)
		}
	}
	if captured.Messages[0].Content != "system prompt" || captured.Messages[4].Content != "the question" {
		t.Error("message order not preserved")
	}
}

func TestCompleteBackendFailure(t *testing.T) {
	server := completionServer(t, "", http.StatusServiceUnavailable, nil)
	defer server.Close()

	c := NewOpenAICompleter(CompletionOptions{BaseURL: server.URL + "/v1", APIKey: "k", Model: "m", Timeout: time.Second})
	if _, err := c.Complete(context.Background(), []models.ChatMessage{{Role: models.RoleUser, Content: "q"}}); err == nil {
		t.Fatal("expected error on backend failure")
	}
}

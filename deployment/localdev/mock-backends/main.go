// Command mock-backends serves fake completion and vector-search endpoints
// so the engine can run locally without live dependencies. Point the engine
// at it with LUMEN_RAG_COMPLETION_BASE_URL and LUMEN_RAG_WEAVIATE_URL.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		content := "in_domain"
		if len(req.Messages) > 0 {
			system := req.Messages[0].Content
			switch {
			case strings.Contains(system, "label"):
				content = "in_domain"
			case strings.Contains(system, "decompose"):
				content = `{"subqueries":[{"query":"battery range complaints","window":{"relative":"last month"}}]}`
			default:
				content = "Riders report the battery draining faster in cold weather [1]. " +
					"Several threads mention the same pattern on longer commutes [2]."
			}
		}
		writeJSON(w, map[string]any{
			"id":      "mock-completion",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})

	mux.HandleFunc("/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		class := "ForumPost"
		if strings.Contains(req.Query, "CustomerMessage") {
			class = "CustomerMessage"
		}
		hits := []map[string]any{
			{
				"text":      "Battery drops from 80% to 40% on a 20km ride when it is below 5C.",
				"author":    "trailrider",
				"url":       "https://forum.example.com/t/battery-cold/812",
				"sentiment": "negative",
				"variant":   "GT",
				"tags":      []string{"battery", "winter"},
				"createdAt": time.Now().Add(-72 * time.Hour).Format(time.RFC3339),
				"_additional": map[string]any{
					"id":        "forum-812",
					"certainty": 0.91,
				},
			},
			{
				"text":      "Range is fine in summer but drops hard in the cold.",
				"author":    "commuter22",
				"url":       "https://forum.example.com/t/range-report/911",
				"sentiment": "negative",
				"variant":   "GT Pro",
				"tags":      []string{"battery", "range"},
				"createdAt": time.Now().Add(-30 * time.Hour).Format(time.RFC3339),
				"_additional": map[string]any{
					"id":        "forum-911",
					"certainty": 0.84,
				},
			},
		}
		writeJSON(w, map[string]any{
			"data": map[string]any{
				"Get": map[string]any{class: hits},
			},
		})
	})

	mux.HandleFunc("/v1/schema/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"class": strings.TrimPrefix(r.URL.Path, "/v1/schema/"),
			"properties": []map[string]any{
				{"name": "text"}, {"name": "sentiment"}, {"name": "variant"},
				{"name": "tags"}, {"name": "createdAt"},
			},
		})
	})

	addr := ":9090"
	log.Printf("mock backends listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

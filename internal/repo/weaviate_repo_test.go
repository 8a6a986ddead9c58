package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lumenstack/lumen-rag/internal/cache"
	"github.com/lumenstack/lumen-rag/internal/models"
)

func TestWeaviateSearchParsesHits(t *testing.T) {
	var capturedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/graphql" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedQuery = body.Query

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"Get": {"ForumPost": [
				{
					"text": "The new variant gets better mileage on highways.",
					"author": "rider42",
					"url": "https://forum.example.com/t/123",
					"sentiment": "positive",
					"variant": "GT",
					"tags": ["mileage"],
					"createdAt": "2026-05-01T10:00:00Z",
					"_additional": {"id": "p-1", "certainty": 0.91}
				}
			]}}
		}`))
	}))
	defer server.Close()

	repo := NewWeaviateRepo(server.URL, "", "ForumPost", "CustomerMessage", time.Second, cache.NoopProvider{}, 0)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	window := models.TimeWindow{Start: &start}
	filters := models.MetadataFilters{Variants: []string{"GT"}}

	passages, err := repo.Search(context.Background(), models.CorpusForum, "variant mileage", window, filters, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}

	got := passages[0]
	if got.ID != "p-1" || got.Corpus != models.CorpusForum {
		t.Fatalf("unexpected passage identity: %+v", got)
	}
	if got.Score != 0.91 {
		t.Fatalf("expected certainty as score, got %f", got.Score)
	}
	if got.Metadata.URL == "" || got.Metadata.Variant != "GT" {
		t.Fatalf("metadata not mapped: %+v", got.Metadata)
	}

	if !strings.Contains(capturedQuery, `nearText: {concepts: ["variant mileage"]}`) {
		t.Fatalf("nearText missing from query:\n%s", capturedQuery)
	}
	if !strings.Contains(capturedQuery, "GreaterThanEqual") {
		t.Fatalf("window operand missing from query:\n%s", capturedQuery)
	}
	if !strings.Contains(capturedQuery, `ContainsAny`) {
		t.Fatalf("filter operand missing from query:\n%s", capturedQuery)
	}
}

func TestWeaviateSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	repo := NewWeaviateRepo(server.URL, "", "", "", time.Second, nil, 0)
	if _, err := repo.Search(context.Background(), models.CorpusForum, "q", models.TimeWindow{}, models.MetadataFilters{}, 3); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestWeaviateHasFieldCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.HasPrefix(r.URL.Path, "/v1/schema/") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"class": "CustomerMessage", "properties": [{"name": "sentiment"}, {"name": "contact"}]}`))
	}))
	defer server.Close()

	repo := NewWeaviateRepo(server.URL, "", "ForumPost", "CustomerMessage", time.Second, cache.NewMemoryProvider(), time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := repo.HasField(context.Background(), models.CorpusMessaging, "sentiment")
		if err != nil {
			t.Fatalf("has field: %v", err)
		}
		if !ok {
			t.Fatal("expected sentiment field to be present")
		}
	}
	if calls != 1 {
		t.Fatalf("expected schema fetched once, got %d calls", calls)
	}

	ok, err := repo.HasField(context.Background(), models.CorpusMessaging, "variant")
	if err != nil {
		t.Fatalf("has field: %v", err)
	}
	if ok {
		t.Fatal("expected variant field to be absent")
	}
}

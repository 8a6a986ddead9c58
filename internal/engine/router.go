package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lumenstack/lumen-rag/internal/metrics"
	"github.com/lumenstack/lumen-rag/internal/models"
)

// VectorSearcher is the semantic-search capability consumed by the router.
type VectorSearcher interface {
	Search(ctx context.Context, corpus models.Corpus, query string, window models.TimeWindow, filters models.MetadataFilters, topK int) ([]models.RetrievedPassage, error)
}

// MessageStore is the direct lookup-by-customer capability.
type MessageStore interface {
	FetchByCustomer(ctx context.Context, name string) ([]models.RetrievedPassage, error)
}

// Router issues sub-queries against the corpora in scope and merges the hits
// into one deduplicated, deterministically ordered passage set.
type Router struct {
	vector        VectorSearcher
	messages      MessageStore
	topK          int
	threshold     float64
	searchTimeout time.Duration
	logger        *slog.Logger
}

// NewRouter constructs a retrieval router.
func NewRouter(vector VectorSearcher, messages MessageStore, topK int, threshold float64, searchTimeout time.Duration, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if topK <= 0 {
		topK = 8
	}
	if searchTimeout <= 0 {
		searchTimeout = 5 * time.Second
	}
	return &Router{
		vector:        vector,
		messages:      messages,
		topK:          topK,
		threshold:     threshold,
		searchTimeout: searchTimeout,
		logger:        logger,
	}
}

type searchResult struct {
	corpus   models.Corpus
	passages []models.RetrievedPassage
	err      error
}

// Retrieve fans out one search call per (sub-query, corpus) pair, then joins
// the results in a passage arena keyed by stable id so the merge is
// independent of completion order. Duplicates keep the higher score; the
// final ordering is score desc, timestamp desc, id asc. Passages below the
// similarity threshold never leave the router.
func (r *Router) Retrieve(ctx context.Context, subs []models.SubQuery, scope models.CorpusScope) ([]models.RetrievedPassage, error) {
	if r.vector == nil {
		return nil, fmt.Errorf("vector searcher not configured")
	}
	if len(subs) == 0 {
		return nil, nil
	}

	corpora := scope.Corpora()
	calls := len(subs) * len(corpora)
	results := make(chan searchResult, calls)

	var wg sync.WaitGroup
	for _, sub := range subs {
		for _, corpus := range corpora {
			wg.Add(1)
			go func(sub models.SubQuery, corpus models.Corpus) {
				defer wg.Done()
				callCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
				defer cancel()
				passages, err := r.vector.Search(callCtx, corpus, sub.Text, sub.Window, sub.Filters, r.topK)
				metrics.ObserveRetrievalCall(string(corpus), err)
				results <- searchResult{corpus: corpus, passages: passages, err: err}
			}(sub, corpus)
		}
	}
	wg.Wait()
	close(results)

	arena := make(map[string]models.RetrievedPassage)
	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			r.logger.Warn("retrieval call failed",
				slog.String("corpus", string(res.corpus)), slog.Any("error", res.err))
			continue
		}
		for _, p := range res.passages {
			if p.ID == "" {
				continue
			}
			existing, ok := arena[p.ID]
			if !ok || p.Score > existing.Score {
				arena[p.ID] = p
			}
		}
	}

	if failed == calls {
		return nil, fmt.Errorf("all %d retrieval calls failed", calls)
	}

	merged := make([]models.RetrievedPassage, 0, len(arena))
	for _, p := range arena {
		if p.Score < r.threshold {
			continue
		}
		merged = append(merged, p)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if !merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].Timestamp.After(merged[j].Timestamp)
		}
		return merged[i].ID < merged[j].ID
	})

	return merged, nil
}

// FetchCustomerThread bypasses semantic search and returns the customer's
// full message history, ordered by timestamp ascending by the store. The
// passages carry no similarity scores.
func (r *Router) FetchCustomerThread(ctx context.Context, name string) ([]models.RetrievedPassage, error) {
	if r.messages == nil {
		return nil, fmt.Errorf("message store not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()
	return r.messages.FetchByCustomer(callCtx, name)
}

package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lumenstack/lumen-rag/internal/metrics"
	"github.com/lumenstack/lumen-rag/internal/models"
	"github.com/lumenstack/lumen-rag/internal/utils"
)

// Asker is the pipeline behaviour the service depends on.
type Asker interface {
	Ask(ctx context.Context, q models.Query) (models.Answer, string, error)
}

// RAGService fronts the query pipeline: it validates and normalizes incoming
// queries, records per-query metrics, and tracks answer latency.
type RAGService struct {
	logger    *slog.Logger
	pipeline  Asker
	latencies *utils.LatencyTracker
}

// NewRAGService constructs the service facade.
func NewRAGService(logger *slog.Logger, pipeline Asker) *RAGService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGService{
		logger:    logger,
		pipeline:  pipeline,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Ask validates the query, applies defaults, and runs the pipeline.
func (s *RAGService) Ask(ctx context.Context, q models.Query) (models.Answer, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		metrics.ObserveQuery(0, metrics.RouteGrounded, metrics.OutcomeError)
		return models.Answer{}, utils.NewInvalidInput(utils.OpAsk, "query text cannot be empty")
	}
	if q.Mode == "" {
		q.Mode = models.ModeThinking
	}
	if q.Scope == "" {
		q.Scope = models.ScopeInsights
	}

	s.logger.Debug("query accepted",
		slog.String("mode", string(q.Mode)),
		slog.String("scope", string(q.Scope)))

	start := time.Now()
	answer, route, err := s.pipeline.Ask(ctx, q)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveQuery(duration, route, metrics.OutcomeError)
		s.logger.Error("pipeline failed", slog.Any("error", err))
		return models.Answer{}, err
	}

	outcome := metrics.OutcomeSuccess
	if answer.Fallback {
		outcome = metrics.OutcomeFallback
	}
	metrics.ObserveQuery(duration, route, outcome)

	if s.latencies.Observe(duration) {
		sum := s.latencies.Summary()
		s.logger.Info("answer latency",
			slog.Duration("p50", sum.P50),
			slog.Duration("p95", sum.P95),
			slog.Int("samples", sum.Samples))
	}

	return answer, nil
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenstack/lumen-rag/internal/directives"
	"github.com/lumenstack/lumen-rag/internal/grounding"
	"github.com/lumenstack/lumen-rag/internal/insights"
	"github.com/lumenstack/lumen-rag/internal/metrics"
	"github.com/lumenstack/lumen-rag/internal/models"
)

// Completer is the completion backend consumed by the pipeline stages.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Pipeline orchestrates the classify, decompose, retrieve, ground and answer
// flow for a single query.
type Pipeline struct {
	logger     *slog.Logger
	completer  Completer
	classifier *Classifier
	optimizer  *Optimizer
	router     *Router
	assembler  *grounding.Assembler
	aggregator *insights.Aggregator
	heuristics *Heuristics
	threshold  float64
	excerptLen int
	now        func() time.Time
}

// NewPipeline constructs the query pipeline.
func NewPipeline(
	logger *slog.Logger,
	completer Completer,
	classifier *Classifier,
	optimizer *Optimizer,
	router *Router,
	assembler *grounding.Assembler,
	aggregator *insights.Aggregator,
	heuristics *Heuristics,
	threshold float64,
	excerptLen int,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if heuristics == nil {
		heuristics = DefaultHeuristics()
	}
	if aggregator == nil {
		aggregator = insights.NewAggregator(logger)
	}
	return &Pipeline{
		logger:     logger,
		completer:  completer,
		classifier: classifier,
		optimizer:  optimizer,
		router:     router,
		assembler:  assembler,
		aggregator: aggregator,
		heuristics: heuristics,
		threshold:  threshold,
		excerptLen: excerptLen,
		now:        time.Now,
	}
}

// Ask runs the full flow and returns the answer with the route that produced
// it. Every failure past validation degrades into a fallback answer; the
// error return is reserved for a dead parent context.
func (p *Pipeline) Ask(ctx context.Context, q models.Query) (models.Answer, string, error) {
	if p.completer == nil {
		return models.Answer{}, metrics.RouteGrounded, fmt.Errorf("completer not configured")
	}

	cls, err := p.classifier.Classify(ctx, q.Text, q.History, q.Scope)
	if err != nil {
		if ctx.Err() != nil {
			return models.Answer{}, metrics.RouteGrounded, ctx.Err()
		}
		p.logger.Warn("classification failed, serving fallback", slog.Any("error", err))
		return p.fallbackAnswer(), metrics.RouteGrounded, nil
	}

	if cls.Domain == models.DomainSmallTalk || cls.Domain == models.DomainOutOfDomain {
		return p.fastPath(ctx, q, cls)
	}

	var (
		passages []models.RetrievedPassage
		window   models.TimeWindow
		route    = metrics.RouteGrounded
	)
	if q.Scope == models.ScopeMessaging && cls.CustomerName != "" {
		route = metrics.RouteShortcut
		passages, err = p.router.FetchCustomerThread(ctx, cls.CustomerName)
		if err != nil {
			if ctx.Err() != nil {
				return models.Answer{}, route, ctx.Err()
			}
			p.logger.Warn("customer lookup failed",
				slog.String("customer", cls.CustomerName), slog.Any("error", err))
			return p.fallbackAnswer(), route, nil
		}
	} else {
		subs := p.optimizer.Optimize(ctx, q.Text, cls, q.Scope, p.now())
		window = enclosingWindow(subs)
		passages, err = p.router.Retrieve(ctx, subs, q.Scope)
		if err != nil {
			if ctx.Err() != nil {
				return models.Answer{}, route, ctx.Err()
			}
			p.logger.Warn("retrieval failed", slog.Any("error", err))
			return p.fallbackAnswer(), route, nil
		}
	}

	eligible := grounding.FilterForCitation(passages, window, p.threshold)
	if len(eligible) == 0 {
		p.logger.Info("no passages survived grounding filters",
			slog.Int("retrieved", len(passages)))
		return p.fallbackAnswer(), route, nil
	}

	contextBlock, included := p.assembler.BuildContext(eligible)
	cited := eligible[:included]
	if included == 0 || contextBlock == "" {
		return p.fallbackAnswer(), route, nil
	}

	messages := BuildMessages(BuildSystemPrompt(q.Mode), q.History, BuildGroundedQuery(contextBlock, q.Text))
	completion, err := p.completer.Complete(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return models.Answer{}, route, ctx.Err()
		}
		p.logger.Warn("grounded completion failed", slog.Any("error", err))
		return p.fallbackAnswer(), route, nil
	}
	if strings.TrimSpace(completion) == "" {
		return p.fallbackAnswer(), route, nil
	}

	return p.composeAnswer(completion, cited, cls, q.Mode), route, nil
}

// fastPath answers small talk and out-of-domain queries with a minimal
// prompt. No retrieval happens and no context reaches the model.
func (p *Pipeline) fastPath(ctx context.Context, q models.Query, cls models.Classification) (models.Answer, string, error) {
	p.logger.Debug("fast path", slog.String("domain", string(cls.Domain)))
	messages := BuildMessages(BuildMinimalPrompt(), q.History, q.Text)
	completion, err := p.completer.Complete(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return models.Answer{}, metrics.RouteFastPath, ctx.Err()
		}
		p.logger.Warn("fast path completion failed", slog.Any("error", err))
		return p.fallbackAnswer(), metrics.RouteFastPath, nil
	}
	completion = strings.TrimSpace(completion)
	if completion == "" {
		return p.fallbackAnswer(), metrics.RouteFastPath, nil
	}
	return models.Answer{
		AnswerID:  uuid.NewString(),
		Text:      completion,
		CreatedAt: p.now().UTC(),
	}, metrics.RouteFastPath, nil
}

// composeAnswer extracts directive blocks from the completion, validates
// citation markers against the citation list, and assembles the envelope.
func (p *Pipeline) composeAnswer(completion string, cited []models.RetrievedPassage, cls models.Classification, mode models.Mode) models.Answer {
	text, charts := directives.ExtractCharts(completion, p.logger)
	text, recs := directives.ExtractRecommendations(text, p.logger)
	citations := grounding.BuildCitations(cited, p.excerptLen)

	if mode == models.ModeNonThinking {
		text = directives.StripMarkers(text)
		citations = nil
	} else {
		valid := make(map[int]bool, len(citations))
		for _, c := range citations {
			valid[c.Number] = true
		}
		invalid := 0
		for _, n := range directives.CitationMarkers(text) {
			if !valid[n] {
				invalid++
			}
		}
		if invalid > 0 {
			p.logger.Warn("stripping dangling citation markers", slog.Int("count", invalid))
			text = directives.StripInvalidMarkers(text, valid)
		}
		if cls.Statistical && len(charts) == 0 {
			charts = p.aggregator.Summarize(cited)
		}
	}

	return models.Answer{
		AnswerID:        uuid.NewString(),
		Text:            strings.TrimSpace(text),
		Citations:       citations,
		Charts:          charts,
		Recommendations: recs,
		CreatedAt:       p.now().UTC(),
	}
}

// fallbackAnswer is the graceful degradation envelope. It never fails.
func (p *Pipeline) fallbackAnswer() models.Answer {
	return models.Answer{
		AnswerID:        uuid.NewString(),
		Text:            "I don't have enough grounded information to answer that reliably.",
		Recommendations: p.heuristics.FallbackRecommendations(),
		Fallback:        true,
		CreatedAt:       p.now().UTC(),
	}
}

// enclosingWindow merges the sub-query windows into one hard citation filter.
// The merge applies only when every sub-query carries a window; a single
// unwindowed sub-query makes the result unbounded.
func enclosingWindow(subs []models.SubQuery) models.TimeWindow {
	if len(subs) == 0 {
		return models.TimeWindow{}
	}
	var out models.TimeWindow
	for i, sub := range subs {
		if sub.Window.IsZero() {
			return models.TimeWindow{}
		}
		if i == 0 {
			out = sub.Window
			continue
		}
		if out.Start != nil && (sub.Window.Start == nil || sub.Window.Start.Before(*out.Start)) {
			out.Start = sub.Window.Start
		}
		if out.End != nil && (sub.Window.End == nil || sub.Window.End.After(*out.End)) {
			out.End = sub.Window.End
		}
	}
	return out
}

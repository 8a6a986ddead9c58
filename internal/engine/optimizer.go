package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lumenstack/lumen-rag/internal/models"
)

// SchemaChecker answers whether a corpus carries an enriched metadata field.
type SchemaChecker interface {
	HasField(ctx context.Context, corpus models.Corpus, field string) (bool, error)
}

const decomposeSystemPrompt = `You decompose a user question about customer feedback into focused
search sub-queries. Respond with a JSON object of this exact shape:
{
  "subqueries": [
    {
      "query": "focused question text",
      "window": {"start": "RFC3339 or empty", "end": "RFC3339 or empty", "relative": "e.g. last week, or empty"},
      "filters": {"variants": [], "sentiments": [], "tags": []}
    }
  ]
}
Produce between 1 and 5 sub-queries. Only add filters explicitly mentioned or
clearly implied by the question. Leave windows empty unless the question names
a time period.`

// Optimizer decomposes a classified in-domain question into 1..5 focused
// sub-queries with resolved time windows and metadata filters.
type Optimizer struct {
	completer  Completer
	schema     SchemaChecker
	heuristics *Heuristics
	logger     *slog.Logger
}

// NewOptimizer constructs an optimizer. schema may be nil, in which case
// enriched-metadata filters are always dropped.
func NewOptimizer(completer Completer, schema SchemaChecker, heuristics *Heuristics, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	if heuristics == nil {
		heuristics = DefaultHeuristics()
	}
	return &Optimizer{completer: completer, schema: schema, heuristics: heuristics, logger: logger}
}

type rawSubQuery struct {
	Query   string     `json:"query"`
	Window  rawWindow  `json:"window"`
	Filters rawFilters `json:"filters"`
}

type rawFilters struct {
	Variants   []string `json:"variants"`
	Sentiments []string `json:"sentiments"`
	Tags       []string `json:"tags"`
}

// Optimize returns the ordered sub-query sequence for the query. Every
// failure mode (completion error, no JSON block, empty decomposition)
// recovers locally to a single sub-query carrying the original text with
// filters extracted from the configured vocabularies.
func (o *Optimizer) Optimize(ctx context.Context, text string, cls models.Classification, scope models.CorpusScope, now time.Time) []models.SubQuery {
	if o.completer == nil {
		return o.fallbackSubQueries(ctx, text, scope)
	}

	raw, err := o.completer.Complete(ctx, BuildMessages(decomposeSystemPrompt, nil, decomposeUserPrompt(text, cls, now)))
	if err != nil {
		o.logger.Warn("decomposition call failed, using single sub-query", slog.Any("error", err))
		return o.fallbackSubQueries(ctx, text, scope)
	}

	decoded, ok := decodeSubQueries(raw)
	if !ok {
		o.logger.Warn("no valid decomposition JSON found, using single sub-query",
			slog.String("raw", truncateForLog(raw, 160)))
		return o.fallbackSubQueries(ctx, text, scope)
	}

	if len(decoded) > models.MaxSubQueries {
		o.logger.Warn("decomposition truncated",
			slog.Int("proposed", len(decoded)), slog.Int("kept", models.MaxSubQueries))
		decoded = decoded[:models.MaxSubQueries]
	}

	subs := make([]models.SubQuery, 0, len(decoded))
	for _, rsq := range decoded {
		q := strings.TrimSpace(rsq.Query)
		if q == "" {
			continue
		}
		sub := models.SubQuery{
			Text:   q,
			Window: resolveWindow(rsq.Window, now),
			Filters: models.MetadataFilters{
				Variants:   cleanStrings(rsq.Filters.Variants),
				Sentiments: cleanStrings(rsq.Filters.Sentiments),
				Tags:       cleanStrings(rsq.Filters.Tags),
			},
		}
		sub.Filters = o.sanitizeFilters(sub.Filters)
		sub.Filters = o.dropUnavailableFilters(ctx, sub.Filters, scope)
		subs = append(subs, sub)
	}

	if len(subs) == 0 {
		return o.fallbackSubQueries(ctx, text, scope)
	}
	return subs
}

// fallbackSubQueries builds the single-sub-query decomposition used when the
// model gives nothing usable. Filters come from vocabulary terms mentioned
// verbatim in the question.
func (o *Optimizer) fallbackSubQueries(ctx context.Context, text string, scope models.CorpusScope) []models.SubQuery {
	filters := models.MetadataFilters{
		Sentiments: mentionedTerms(text, o.heuristics.KnownSentiments()),
		Variants:   mentionedTerms(text, o.heuristics.KnownVariants()),
	}
	filters = o.dropUnavailableFilters(ctx, filters, scope)
	return []models.SubQuery{{Text: text, Filters: filters}}
}

func decomposeUserPrompt(text string, cls models.Classification, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current time: %s\n", now.UTC().Format(time.RFC3339))
	if cls.BroadInsight {
		sb.WriteString("This is a broad insight question; split it into the distinct angles it covers.\n")
	}
	if cls.Statistical {
		sb.WriteString("This is an aggregation question; keep sub-queries countable.\n")
	}
	fmt.Fprintf(&sb, "Question: %s", text)
	return sb.String()
}

// decodeSubQueries tolerates both the documented object shape and a bare
// top-level array, since models drift between the two.
func decodeSubQueries(raw string) ([]rawSubQuery, bool) {
	block, ok := extractJSONBlock(raw)
	if !ok {
		return nil, false
	}

	if strings.HasPrefix(block, "[") {
		var list []rawSubQuery
		if err := json.Unmarshal([]byte(block), &list); err != nil {
			return nil, false
		}
		return list, true
	}

	var wrapper struct {
		SubQueries []rawSubQuery `json:"subqueries"`
	}
	if err := json.Unmarshal([]byte(block), &wrapper); err != nil {
		return nil, false
	}
	return wrapper.SubQueries, true
}

// sanitizeFilters validates model-proposed filter values against the
// configured vocabularies. Unknown sentiment labels are dropped; variants are
// checked only when a variant vocabulary is configured. Survivors take the
// vocabulary spelling so the corpus sees a consistent casing.
func (o *Optimizer) sanitizeFilters(filters models.MetadataFilters) models.MetadataFilters {
	kept := keepKnown(filters.Sentiments, o.heuristics.KnownSentiments())
	if len(kept) < len(filters.Sentiments) {
		o.logger.Debug("dropped sentiments outside the configured labels",
			slog.Int("proposed", len(filters.Sentiments)), slog.Int("kept", len(kept)))
	}
	filters.Sentiments = kept

	if vocab := o.heuristics.KnownVariants(); len(vocab) > 0 {
		kept := keepKnown(filters.Variants, vocab)
		if len(kept) < len(filters.Variants) {
			o.logger.Debug("dropped variants outside the configured names",
				slog.Int("proposed", len(filters.Variants)), slog.Int("kept", len(kept)))
		}
		filters.Variants = kept
	}
	return filters
}

// keepKnown returns the values present in vocab, case-insensitively,
// canonicalized to the vocabulary spelling. nil when nothing survives.
func keepKnown(values, vocab []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, known := range vocab {
			if strings.EqualFold(v, known) {
				out = append(out, known)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mentionedTerms returns the vocabulary terms that appear in the text as
// whole words. When one matched term contains another ("GT Pro" vs "GT"),
// only the longer is kept.
func mentionedTerms(text string, vocab []string) []string {
	var matched []string
	for _, term := range vocab {
		term = strings.TrimSpace(term)
		if term != "" && mentionsTermFold(text, term) {
			matched = append(matched, term)
		}
	}
	if len(matched) < 2 {
		return matched
	}
	out := make([]string, 0, len(matched))
	for _, term := range matched {
		subsumed := false
		for _, other := range matched {
			if other != term && len(other) > len(term) && mentionsTermFold(other, term) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			out = append(out, term)
		}
	}
	return out
}

func mentionsTermFold(text, term string) bool {
	lowered := strings.ToLower(text)
	needle := strings.ToLower(term)
	for start := 0; ; {
		i := strings.Index(lowered[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(needle)
		beforeOK := i == 0 || !isWordByte(lowered[i-1])
		afterOK := end == len(lowered) || !isWordByte(lowered[end])
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 'A' && b <= 'Z'
}

// dropUnavailableFilters removes sentiment/variant filters when any corpus in
// scope does not carry the field: a filter that silently empties one corpus
// is worse than a broader search.
func (o *Optimizer) dropUnavailableFilters(ctx context.Context, filters models.MetadataFilters, scope models.CorpusScope) models.MetadataFilters {
	if len(filters.Sentiments) > 0 && !o.fieldAvailable(ctx, scope, "sentiment") {
		o.logger.Debug("dropping sentiment filter, field unavailable in scope", slog.String("scope", string(scope)))
		filters.Sentiments = nil
	}
	if len(filters.Variants) > 0 && !o.fieldAvailable(ctx, scope, "variant") {
		o.logger.Debug("dropping variant filter, field unavailable in scope", slog.String("scope", string(scope)))
		filters.Variants = nil
	}
	return filters
}

func (o *Optimizer) fieldAvailable(ctx context.Context, scope models.CorpusScope, field string) bool {
	if o.schema == nil {
		return false
	}
	for _, corpus := range scope.Corpora() {
		ok, err := o.schema.HasField(ctx, corpus, field)
		if err != nil {
			o.logger.Warn("schema check failed, dropping filter",
				slog.String("corpus", string(corpus)), slog.String("field", field), slog.Any("error", err))
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

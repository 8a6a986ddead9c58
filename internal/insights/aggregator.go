package insights

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lumenstack/lumen-rag/internal/models"
)

// Aggregator derives statistical summaries from retrieved passages for
// broad-insight questions. It works on what retrieval already produced and
// never touches the corpora itself.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Summarize builds chart specs from the passage set: a sentiment breakdown
// when sentiment labels are present, a per-corpus volume split when both
// corpora contributed, a monthly volume series when the passages span more
// than one month, and a topic split when more than one tag occurs. Empty
// input yields no charts.
func (a *Aggregator) Summarize(passages []models.RetrievedPassage) []models.ChartSpec {
	if len(passages) == 0 {
		return nil
	}

	charts := make([]models.ChartSpec, 0, 4)

	sentiments := make(map[string]float64)
	for _, p := range passages {
		s := strings.ToLower(strings.TrimSpace(p.Metadata.Sentiment))
		if s == "" {
			continue
		}
		sentiments[s]++
	}
	if len(sentiments) > 1 {
		charts = append(charts, models.ChartSpec{
			Title: "Sentiment breakdown",
			Type:  "pie",
			Data:  sentiments,
		})
	}

	byCorpus := make(map[string]float64)
	for _, p := range passages {
		byCorpus[string(p.Corpus)]++
	}
	if len(byCorpus) > 1 {
		charts = append(charts, models.ChartSpec{
			Title: "Mentions by source",
			Type:  "bar",
			Data:  byCorpus,
		})
	}

	byMonth := make(map[string]float64)
	for _, p := range passages {
		if p.Timestamp.IsZero() {
			continue
		}
		byMonth[p.Timestamp.Format("2006-01")]++
	}
	if len(byMonth) > 1 {
		charts = append(charts, models.ChartSpec{
			Title: "Volume over time",
			Type:  "line",
			Data:  byMonth,
		})
	}

	if tags := a.TopTags(passages, 6); len(tags) > 1 {
		counts := tagCounts(passages)
		byTag := make(map[string]float64, len(tags))
		for _, tag := range tags {
			byTag[tag] = float64(counts[tag])
		}
		charts = append(charts, models.ChartSpec{
			Title: "Top topics",
			Type:  "bar",
			Data:  byTag,
		})
	}

	if len(charts) > 0 {
		a.logger.Debug("synthesized insight charts", slog.Int("charts", len(charts)))
	}
	return charts
}

// TopTags returns the most frequent metadata tags across the passages,
// capped at limit, ordered by count descending then tag ascending.
func (a *Aggregator) TopTags(passages []models.RetrievedPassage, limit int) []string {
	counts := tagCounts(passages)
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func tagCounts(passages []models.RetrievedPassage) map[string]int {
	counts := make(map[string]int)
	for _, p := range passages {
		for _, tag := range p.Metadata.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				counts[tag]++
			}
		}
	}
	return counts
}

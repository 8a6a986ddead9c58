package engine

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Heuristics holds the keyword packs used for local, deterministic query
// checks. The lists are configuration, not logic: the shipped defaults are
// a starting point, tuned packs can be loaded from YAML.
type Heuristics struct {
	cfg    heuristicsFile
	logger *slog.Logger
}

type heuristicsFile struct {
	AggregationKeywords     []string `yaml:"aggregation_keywords"`
	InsightKeywords         []string `yaml:"insight_keywords"`
	SentimentLabels         []string `yaml:"sentiment_labels"`
	VariantNames            []string `yaml:"variant_names"`
	FallbackRecommendations []string `yaml:"fallback_recommendations"`
}

// LoadHeuristics loads a keyword pack from path, falling back to the
// compiled-in defaults when the path is empty or the file does not exist.
func LoadHeuristics(path string, logger *slog.Logger) (*Heuristics, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := defaultHeuristics()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			logger.Debug("heuristics pack not found, using defaults", slog.String("path", path))
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	return &Heuristics{cfg: cfg, logger: logger}, nil
}

// DefaultHeuristics returns the compiled-in keyword packs.
func DefaultHeuristics() *Heuristics {
	return &Heuristics{cfg: defaultHeuristics(), logger: slog.Default()}
}

func defaultHeuristics() heuristicsFile {
	return heuristicsFile{
		AggregationKeywords: []string{
			"how many", "how much", "count", "number of", "percentage",
			"percent", "average", "top", "most common", "least common",
			"distribution", "breakdown", "total",
		},
		InsightKeywords: []string{
			"pattern", "trend", "trends", "compare", "comparison", "why do",
			"why are", "insight", "common theme", "overall", "in general",
			"sentiment over",
		},
		SentimentLabels: []string{
			"positive", "negative", "neutral", "frustrated", "satisfied", "mixed",
		},
		VariantNames: nil,
		FallbackRecommendations: []string{
			"Try narrowing the question to a specific time period or product variant",
			"Rephrase the question with the exact terms customers would use",
		},
	}
}

// IsStatistical reports whether the text asks for counts or aggregations.
func (h *Heuristics) IsStatistical(text string) bool {
	return containsAnyFold(text, h.cfg.AggregationKeywords)
}

// IsBroadInsight reports whether the text asks a comparative or pattern question.
func (h *Heuristics) IsBroadInsight(text string) bool {
	return containsAnyFold(text, h.cfg.InsightKeywords)
}

// KnownSentiments returns the recognised sentiment labels.
func (h *Heuristics) KnownSentiments() []string {
	return h.cfg.SentimentLabels
}

// KnownVariants returns the configured product-variant vocabulary.
func (h *Heuristics) KnownVariants() []string {
	return h.cfg.VariantNames
}

// FallbackRecommendations returns suggestions attached to fallback answers.
func (h *Heuristics) FallbackRecommendations() []string {
	return h.cfg.FallbackRecommendations
}

func containsAnyFold(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

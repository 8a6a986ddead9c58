package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lumenstack/lumen-rag/internal/models"
)

const classifySystemPrompt = `You label questions for a customer-insight assistant that answers from
public forum posts and private customer messages about our products.
Reply with exactly one label and nothing else:
in_domain    - the question is about our products, customers, or their feedback
out_of_domain - the question is about anything else
small_talk   - greetings, thanks, chit-chat with no information need`

// Classifier labels a raw question by domain fit and intent pattern. Domain
// classification is delegated to the completion backend; the broad-insight
// and statistical checks are local deterministic predicates.
type Classifier struct {
	completer  Completer
	heuristics *Heuristics
	logger     *slog.Logger
}

// NewClassifier constructs a classifier.
func NewClassifier(completer Completer, heuristics *Heuristics, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if heuristics == nil {
		heuristics = DefaultHeuristics()
	}
	return &Classifier{completer: completer, heuristics: heuristics, logger: logger}
}

// Classify labels the query. A completion reply that does not decode into a
// known label defaults to in_domain so the query is never silently dropped;
// a failed completion call is returned to the caller for fallback routing.
func (c *Classifier) Classify(ctx context.Context, text string, history []models.ChatMessage, scope models.CorpusScope) (models.Classification, error) {
	if c.completer == nil {
		return models.Classification{}, fmt.Errorf("completion backend not configured")
	}

	user := fmt.Sprintf("Question: %s", text)
	raw, err := c.completer.Complete(ctx, BuildMessages(classifySystemPrompt, tailHistory(history, 4), user))
	if err != nil {
		return models.Classification{}, fmt.Errorf("classify: %w", err)
	}

	label, ok := models.ParseDomainLabel(raw)
	if !ok {
		c.logger.Warn("unparseable classification, defaulting to in_domain",
			slog.String("raw", truncateForLog(raw, 120)))
	}

	cls := models.Classification{
		Domain:       label,
		BroadInsight: c.heuristics.IsBroadInsight(text),
		Statistical:  c.heuristics.IsStatistical(text),
	}
	if scope == models.ScopeMessaging {
		cls.CustomerName = extractCustomerName(text)
	}
	return cls, nil
}

func tailHistory(history []models.ChatMessage, n int) []models.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var (
	customerLeadRe = regexp.MustCompile(`\b(?:for|customer)\s+([A-Z][A-Za-z'-]+(?:\s+[A-Z][A-Za-z'-]+)*)`)
	possessiveRe   = regexp.MustCompile(`\b([A-Z][A-Za-z'-]+(?:\s+[A-Z][A-Za-z'-]+)*)'s\b`)
	properPairRe   = regexp.MustCompile(`\b([A-Z][a-z'-]+\s+[A-Z][a-z'-]+)\b`)
)

// extractCustomerName scans for an explicit "for <name>" / "customer <name>"
// pattern, a possessive, or a capitalized name pair. Returns "" when absent;
// never fails on empty or malformed input.
func extractCustomerName(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	if m := customerLeadRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := possessiveRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	// A capitalized pair at the very start is usually sentence case, not a name.
	if loc := properPairRe.FindStringIndex(text); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(text[loc[0]:loc[1]])
	}
	return ""
}

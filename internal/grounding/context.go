package grounding

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lumenstack/lumen-rag/internal/models"
)

// Assembler turns ranked passages into the numbered context block sent to
// the completion backend. The block never exceeds the token budget: when it
// would, whole passages are dropped from the tail, which holds the lowest
// ranked entries.
type Assembler struct {
	tokens      *TokenEstimator
	tokenBudget int
	excerptLen  int
	logger      *slog.Logger
}

// NewAssembler constructs a context assembler.
func NewAssembler(tokens *TokenEstimator, tokenBudget, excerptLen int, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = NewTokenEstimator()
	}
	if tokenBudget <= 0 {
		tokenBudget = 3200
	}
	if excerptLen <= 0 {
		excerptLen = 240
	}
	return &Assembler{tokens: tokens, tokenBudget: tokenBudget, excerptLen: excerptLen, logger: logger}
}

// BuildContext renders one line per passage, numbered to match the citation
// list produced from the same slice. Passage order is preserved. Returns the
// context block and the count of passages that made it in.
func (a *Assembler) BuildContext(passages []models.RetrievedPassage) (string, int) {
	if len(passages) == 0 {
		return "", 0
	}

	lines := make([]string, 0, len(passages))
	total := 0
	included := 0
	for i, p := range passages {
		line := a.renderLine(i+1, p)
		cost := a.tokens.Count(line)
		if total+cost > a.tokenBudget {
			a.logger.Debug("context budget reached",
				slog.Int("included", included),
				slog.Int("dropped", len(passages)-included))
			break
		}
		lines = append(lines, line)
		total += cost
		included++
	}

	return strings.Join(lines, "\n"), included
}

func (a *Assembler) renderLine(number int, p models.RetrievedPassage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] (%s", number, p.Corpus)
	if !p.Timestamp.IsZero() {
		fmt.Fprintf(&sb, ", %s", p.Timestamp.Format("2006-01-02"))
	}
	sb.WriteString(") ")
	sb.WriteString(Truncate(p.Text, a.excerptLen))
	return sb.String()
}

// Truncate shortens text to at most max runes, cutting at the last word
// boundary and appending an ellipsis. Text at or under the limit is returned
// unchanged.
func Truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}

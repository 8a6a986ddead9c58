package directives

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lumenstack/lumen-rag/internal/models"
)

var chartBlockRe = regexp.MustCompile("(?s)```chart\\s*\\n(.*?)```")

// ExtractCharts pulls fenced chart blocks out of a completion, decodes each
// into a ChartSpec, and returns the text with the blocks removed. Blocks
// that fail to decode are dropped and logged, never surfaced to the caller.
func ExtractCharts(text string, logger *slog.Logger) (string, []models.ChartSpec) {
	if logger == nil {
		logger = slog.Default()
	}
	matches := chartBlockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	charts := make([]models.ChartSpec, 0, len(matches))
	for _, m := range matches {
		var spec models.ChartSpec
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &spec); err != nil {
			logger.Warn("dropping malformed chart block", slog.Any("error", err))
			continue
		}
		if spec.Type == "" {
			spec.Type = "bar"
		}
		if len(spec.Data) == 0 {
			continue
		}
		charts = append(charts, spec)
	}

	cleaned := strings.TrimSpace(chartBlockRe.ReplaceAllString(text, ""))
	return cleaned, charts
}

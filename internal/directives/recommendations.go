package directives

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

var recBlockRe = regexp.MustCompile("(?s)```recommendations\\s*\\n(.*?)```")

// ExtractRecommendations pulls the fenced recommendations block out of a
// completion and returns the remaining text plus the decoded list. At most
// one block is honored; extras are stripped along with it.
func ExtractRecommendations(text string, logger *slog.Logger) (string, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	matches := recBlockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var recs []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(matches[0][1])), &recs); err != nil {
		logger.Warn("dropping malformed recommendations block", slog.Any("error", err))
		recs = nil
	}

	out := make([]string, 0, len(recs))
	for _, r := range recs {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}

	cleaned := strings.TrimSpace(recBlockRe.ReplaceAllString(text, ""))
	return cleaned, out
}

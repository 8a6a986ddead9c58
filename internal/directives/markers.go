package directives

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	markerRe = regexp.MustCompile(`\[(\d+)\]`)
	spacesRe = regexp.MustCompile(`[ \t]{2,}`)
)

// CitationMarkers returns the distinct citation numbers referenced in text,
// in first-appearance order.
func CitationMarkers(text string) []int {
	matches := markerRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(matches))
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// StripMarkers removes every [n] marker and collapses the whitespace left
// behind.
func StripMarkers(text string) string {
	stripped := markerRe.ReplaceAllString(text, "")
	stripped = spacesRe.ReplaceAllString(stripped, " ")
	stripped = strings.ReplaceAll(stripped, " .", ".")
	stripped = strings.ReplaceAll(stripped, " ,", ",")
	return strings.TrimSpace(stripped)
}

// StripInvalidMarkers removes only the markers whose number is not in valid,
// keeping legitimate citations intact.
func StripInvalidMarkers(text string, valid map[int]bool) string {
	return markerRe.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(strings.Trim(m, "[]"))
		if err == nil && valid[n] {
			return m
		}
		return ""
	})
}

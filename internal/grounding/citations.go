package grounding

import (
	"strings"

	"github.com/lumenstack/lumen-rag/internal/models"
)

// FilterForCitation keeps the passages eligible to be cited. A non-zero
// window is a hard filter on the passage timestamp. The similarity threshold
// applies only to scored passages; direct lookups carry no score and pass
// through on the window alone.
func FilterForCitation(passages []models.RetrievedPassage, window models.TimeWindow, threshold float64) []models.RetrievedPassage {
	out := make([]models.RetrievedPassage, 0, len(passages))
	for _, p := range passages {
		if !window.IsZero() && !window.Contains(p.Timestamp) {
			continue
		}
		if p.Score > 0 && p.Score < threshold {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BuildCitations numbers passages sequentially from 1 and pairs each with a
// reference the caller can surface verbatim. Forum passages point at their
// thread URL; messaging passages expose only a masked contact. The slice
// order must match the context block so marker [n] resolves to citation n.
func BuildCitations(passages []models.RetrievedPassage, excerptLen int) []models.Citation {
	if excerptLen <= 0 {
		excerptLen = 240
	}
	citations := make([]models.Citation, 0, len(passages))
	for i, p := range passages {
		ref := ""
		switch p.Corpus {
		case models.CorpusForum:
			ref = p.Metadata.URL
		case models.CorpusMessaging:
			ref = MaskContact(p.Metadata.Contact)
		}
		citations = append(citations, models.Citation{
			Number:    i + 1,
			Corpus:    p.Corpus,
			PassageID: p.ID,
			Excerpt:   Truncate(p.Text, excerptLen),
			Timestamp: p.Timestamp,
			Reference: ref,
		})
	}
	return citations
}

// MaskContact hides direct contact details. Email addresses keep the first
// character and the domain; anything else is treated as a phone number and
// keeps the last four digits.
func MaskContact(contact string) string {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return ""
	}
	if at := strings.IndexByte(contact, '@'); at > 0 {
		local := contact[:at]
		return local[:1] + strings.Repeat("*", len(local)-1) + contact[at:]
	}
	digits := make([]byte, 0, len(contact))
	for i := 0; i < len(contact); i++ {
		if contact[i] >= '0' && contact[i] <= '9' {
			digits = append(digits, contact[i])
		}
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}

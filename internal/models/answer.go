package models

import "time"

// Citation is the rendering-ready view of one grounding passage. Numbers are
// assigned per answer starting at 1 and are never reused across queries.
type Citation struct {
	Number    int       `json:"number"`
	Corpus    Corpus    `json:"source_tag"`
	PassageID string    `json:"id"`
	Excerpt   string    `json:"excerpt"`
	Timestamp time.Time `json:"timestamp"`
	// Reference is the forum source URL, or a masked contact line for
	// messaging passages. Never an unredacted contact detail.
	Reference string `json:"url_or_masked_contact,omitempty"`
}

// ChartSpec describes one suggested chart.
type ChartSpec struct {
	Title string             `json:"title"`
	Type  string             `json:"type"`
	Data  map[string]float64 `json:"data"`
}

// Answer is the final pipeline output handed to the presentation layer.
// Every inline [n] marker in Text corresponds to exactly one Citation.
type Answer struct {
	AnswerID        string      `json:"answer_id"`
	Text            string      `json:"text"`
	Citations       []Citation  `json:"citations"`
	Charts          []ChartSpec `json:"charts,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
	// Fallback marks answers produced without grounding because the
	// backends failed or retrieval came back empty.
	Fallback  bool      `json:"fallback"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Corpus tags the source of a retrieved passage.
type Corpus string

const (
	CorpusForum     Corpus = "forum"
	CorpusMessaging Corpus = "messaging"
)

// PassageMetadata carries the structured fields attached to a passage.
// Contact is only populated for messaging passages and must be masked before
// it reaches any rendered output.
type PassageMetadata struct {
	Author    string
	Contact   string
	URL       string
	Sentiment string
	Variant   string
	Tags      []string
}

// RetrievedPassage is one scored search hit. Passages are owned by the
// retrieval router for the lifetime of a single query and are never mutated
// after creation, only filtered and sorted.
type RetrievedPassage struct {
	Corpus    Corpus
	ID        string
	Text      string
	Score     float64
	Timestamp time.Time
	Metadata  PassageMetadata
}

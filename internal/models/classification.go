package models

import "strings"

// DomainLabel enumerates the classifier's domain verdicts.
type DomainLabel string

const (
	DomainInDomain    DomainLabel = "in_domain"
	DomainOutOfDomain DomainLabel = "out_of_domain"
	DomainSmallTalk   DomainLabel = "small_talk"
)

// ParseDomainLabel decodes free-form model output into a DomainLabel. This is
// the single boundary where stringly-typed completion output becomes a typed
// value; anything unrecognisable reports ok=false and callers default to
// DomainInDomain so a user query is never silently dropped.
func ParseDomainLabel(raw string) (DomainLabel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.Trim(normalized, `"'.!` + "`")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")

	switch {
	case strings.Contains(normalized, string(DomainSmallTalk)):
		return DomainSmallTalk, true
	case strings.Contains(normalized, string(DomainOutOfDomain)):
		return DomainOutOfDomain, true
	case strings.Contains(normalized, string(DomainInDomain)):
		return DomainInDomain, true
	}
	return DomainInDomain, false
}

// Classification is the per-query verdict produced by the classifier. It is
// built fresh for every query and never persisted.
type Classification struct {
	Domain DomainLabel
	// BroadInsight marks comparative "why/pattern/trend" questions.
	BroadInsight bool
	// Statistical marks aggregation questions (counts, percentages, top-N).
	Statistical bool
	// CustomerName is set only for messaging-scoped queries that name a
	// specific customer; empty otherwise.
	CustomerName string
}

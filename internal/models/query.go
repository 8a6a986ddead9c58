package models

// Mode selects the answer style requested by the caller.
type Mode string

const (
	// ModeThinking produces a sectioned analysis with inline citations,
	// chart suggestions and recommendations.
	ModeThinking Mode = "thinking"
	// ModeNonThinking produces a terse statistics-only answer.
	ModeNonThinking Mode = "non_thinking"
)

// CorpusScope selects which corpora a query is allowed to search.
type CorpusScope string

const (
	ScopeForum     CorpusScope = "forum"
	ScopeMessaging CorpusScope = "messaging"
	// ScopeInsights spans both corpora.
	ScopeInsights CorpusScope = "insights"
)

// Corpora returns the concrete corpora covered by the scope.
func (s CorpusScope) Corpora() []Corpus {
	switch s {
	case ScopeForum:
		return []Corpus{CorpusForum}
	case ScopeMessaging:
		return []Corpus{CorpusMessaging}
	default:
		return []Corpus{CorpusForum, CorpusMessaging}
	}
}

// Message roles understood by the completion backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one prior conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query is the full per-call input to the pipeline. All session-like state
// (scope, mode, history) travels here explicitly; nothing is ambient.
type Query struct {
	Text    string
	History []ChatMessage
	Mode    Mode
	Scope   CorpusScope
}

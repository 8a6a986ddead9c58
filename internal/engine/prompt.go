package engine

import (
	"fmt"
	"strings"

	"github.com/lumenstack/lumen-rag/internal/models"
)

const thinkingSystemPrompt = `You are a customer-insight analyst answering from retrieved context only.
Structure the answer as: a short summary, then the supporting detail.
Cite sources inline with bracketed numbers like [1] that refer to the
numbered context passages; never cite a number that is not in the context.
When the data suits a chart, emit one fenced block:
` + "```chart\n" + `{"title": "...", "type": "bar|line|pie", "data": {"label": 1}}
` + "```" + `
When you have concrete follow-up suggestions, emit one fenced block:
` + "```recommendations\n" + `["suggestion one", "suggestion two"]
` + "```" + `
If the context does not support an answer, say so plainly.`

const nonThinkingSystemPrompt = `You are a customer-insight analyst. Answer with the key figures and
facts only: short sentences, no headings, no citations, no markdown
decoration. If the context does not support an answer, say so in one line.`

const minimalSystemPrompt = `You are a friendly customer-insight assistant. The user's message needs
no data lookup. Reply briefly and courteously; if they ask for product or
customer information, invite them to ask a concrete question.`

// BuildSystemPrompt returns the instruction set for the requested mode. Mode
// is always an explicit caller decision, never inferred.
func BuildSystemPrompt(mode models.Mode) string {
	if mode == models.ModeNonThinking {
		return nonThinkingSystemPrompt
	}
	return thinkingSystemPrompt
}

// BuildMinimalPrompt returns the instruction set for the no-retrieval fast
// path (small talk and out-of-domain queries).
func BuildMinimalPrompt() string {
	return minimalSystemPrompt
}

// BuildMessages assembles the completion-backend message sequence: system
// prompt first, prior turns in original order, the new user query last. This
// ordering is load-bearing for the backend's context handling.
func BuildMessages(system string, history []models.ChatMessage, query string) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(history)+2)
	if system != "" {
		messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: system})
	}
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: query})
	return messages
}

// BuildGroundedQuery embeds the context block ahead of the question. An empty
// context yields just the question.
func BuildGroundedQuery(contextBlock, question string) string {
	if strings.TrimSpace(contextBlock) == "" {
		return question
	}
	return fmt.Sprintf("Context passages:\n%s\n\nQuestion: %s", contextBlock, question)
}

package repo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/lumenstack/lumen-rag/internal/models"
)

// OpenAICompleter calls an OpenAI-compatible chat-completion backend. It is
// the only component that talks to the language model; text in, text out.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// CompletionOptions configures the completion backend client.
type CompletionOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewOpenAICompleter constructs a completer against the configured endpoint.
func NewOpenAICompleter(opts CompletionOptions) *OpenAICompleter {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   maxTokens,
		temperature: float32(opts.Temperature),
	}
}

// Complete sends the prepared message sequence in order, returning the raw
// model text. Message assembly is the prompt builder's job; this client only
// maps roles onto the wire format.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	wire := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		switch role {
		case models.RoleSystem, models.RoleAssistant, models.RoleUser:
		default:
			role = openai.ChatMessageRoleUser
		}
		wire = append(wire, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    wire,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ChatOptions carries per-call overrides for a chat completion. Zero
// values fall back to the service's configured defaults.
type ChatOptions struct {
	MaxTokens   int
	Temperature float32
}

// TokenUsage reports the token accounting for one completion call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the outcome of one chat completion.
type ChatResult struct {
	Text  string
	Usage TokenUsage
}

// LLMService defines the interface for chat completion operations.
// Implementations wrap cloud providers (Anthropic Claude, Google Gemini)
// behind a provider-agnostic contract resolved once at configuration time.
type LLMService interface {
	// Chat generates a completion for the conversation history. The
	// messages slice must contain the full context in chronological order;
	// system messages are extracted and passed through the provider's
	// system channel.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResult, error)

	// HealthCheck verifies the service is operational.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the service.
	Close() error
}

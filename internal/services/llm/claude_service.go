package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
)

// ClaudeService implements the LLMService interface using the Anthropic
// Claude API, bound to one role's model and token budget.
type ClaudeService struct {
	logger      arbor.ILogger
	client      anthropic.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

// convertMessagesToClaude converts []interfaces.Message to Claude MessageParam format.
// Maps Role values to provider's expected values and maintains chronological ordering.
// Extracts system messages separately for use with System parameter.
// Returns the user/assistant messages, the first system message content (if any), and an error.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		// Handle system messages separately
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		switch msg.Role {
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case "user":
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			// Default to user for unknown roles
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return claudeMessages, systemText, nil
}

// NewClaudeService creates a Claude LLM service bound to the given role.
func NewClaudeService(claudeConfig *common.ClaudeConfig, role common.RoleConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if claudeConfig.APIKey == "" {
		return nil, fmt.Errorf("%w: Anthropic API key is required (set ANTHROPIC_API_KEY, RESPONSA_CLAUDE_API_KEY, or claude.api_key)", common.ErrMissingConfig)
	}

	model := role.Model
	if model == "" {
		model = claudeConfig.Model
	}
	if model == "" {
		model = "claude-3-haiku-20240307"
	}

	timeout, err := time.ParseDuration(claudeConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", claudeConfig.Timeout, err)
	}

	maxTokens := role.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	client := anthropic.NewClient(
		option.WithAPIKey(claudeConfig.APIKey),
	)

	service := &ClaudeService{
		logger:      logger,
		client:      client,
		model:       model,
		timeout:     timeout,
		maxTokens:   maxTokens,
		temperature: role.Temperature,
	}

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Float32("temperature", role.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
// The messages slice should contain the full conversation context in
// chronological order, including system prompts, user messages, and
// previous assistant responses.
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message, opts *interfaces.ChatOptions) (*interfaces.ChatResult, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("message_count", len(messages)).
		Str("model", s.model).
		Msg("Starting Claude chat completion")

	result, err := s.generateCompletion(timeoutCtx, messages, opts)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Claude chat completion failed")
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	duration := time.Since(startTime)
	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(result.Text)).
		Int("total_tokens", result.Usage.TotalTokens).
		Dur("duration", duration).
		Msg("Claude chat completion completed")

	return result, nil
}

// HealthCheck verifies the Claude service is operational with a minimal probe.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	testMessages := []interfaces.Message{
		{Role: "user", Content: "ping"},
	}

	result, err := s.generateCompletion(healthCheckCtx, testMessages, &interfaces.ChatOptions{MaxTokens: 8})
	if err != nil {
		return fmt.Errorf("Claude health check failed: %w", err)
	}
	if len(strings.TrimSpace(result.Text)) == 0 {
		return fmt.Errorf("Claude probe returned empty response")
	}

	return nil
}

// Close releases resources and performs cleanup operations.
func (s *ClaudeService) Close() error {
	// Claude client doesn't require explicit cleanup
	return nil
}

// generateCompletion encapsulates the Claude API chat completion logic.
func (s *ClaudeService) generateCompletion(ctx context.Context, messages []interfaces.Message, opts *interfaces.ChatOptions) (*interfaces.ChatResult, error) {
	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	maxTokens := s.maxTokens
	temperature := s.temperature
	if opts != nil {
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			temperature = opts.Temperature
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(maxTokens),
		Messages:  claudeMessages,
	}

	if temperature > 0 {
		params.Temperature = anthropic.Float(float64(temperature))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated from Claude API")
	}

	return &interfaces.ChatResult{
		Text: response.String(),
		Usage: interfaces.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
)

// GeminiService implements the LLMService interface using the Google
// Gemini API, bound to one role's model and token budget.
type GeminiService struct {
	logger      arbor.ILogger
	client      *genai.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content format.
// Maps Role values to provider's expected values and maintains chronological ordering.
// Extracts system messages separately for use with SystemInstruction.
// Returns the user/model messages, the first system message content (if any), and an error.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
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

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		// Handle system messages separately
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		case "user":
			geminiRole = genai.RoleUser
		default:
			geminiRole = genai.RoleUser // Default to user for unknown roles
		}

		part := genai.NewPartFromText(msg.Content)
		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{part},
		})
	}

	return contents, systemText, nil
}

// NewGeminiService creates a Gemini LLM service bound to the given role.
func NewGeminiService(geminiConfig *common.GeminiConfig, role common.RoleConfig, logger arbor.ILogger) (*GeminiService, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("%w: Google API key is required (set GEMINI_API_KEY, RESPONSA_GEMINI_API_KEY, or gemini.api_key)", common.ErrMissingConfig)
	}

	model := role.Model
	if model == "" {
		model = geminiConfig.Model
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(geminiConfig.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", geminiConfig.Timeout, err)
	}

	maxTokens := role.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
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
		Msg("Gemini LLM service initialized")

	return service, nil
}

// Chat generates a completion response based on the conversation history.
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message, opts *interfaces.ChatOptions) (*interfaces.ChatResult, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug().
		Int("message_count", len(messages)).
		Str("model", s.model).
		Msg("Starting Gemini chat completion")

	result, err := s.generateCompletion(timeoutCtx, messages, opts)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Gemini chat completion failed")
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	duration := time.Since(startTime)
	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(result.Text)).
		Int("total_tokens", result.Usage.TotalTokens).
		Dur("duration", duration).
		Msg("Gemini chat completion completed")

	return result, nil
}

// HealthCheck verifies the Gemini service is operational with a minimal probe.
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	testMessages := []interfaces.Message{
		{Role: "user", Content: "ping"},
	}

	result, err := s.generateCompletion(healthCheckCtx, testMessages, &interfaces.ChatOptions{MaxTokens: 8})
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}
	if len(strings.TrimSpace(result.Text)) == 0 {
		return fmt.Errorf("Gemini probe returned empty response")
	}

	return nil
}

// Close releases resources and performs cleanup operations.
func (s *GeminiService) Close() error {
	// genai client doesn't require explicit cleanup
	return nil
}

// generateCompletion encapsulates the Gemini chat completion logic.
func (s *GeminiService) generateCompletion(ctx context.Context, messages []interfaces.Message, opts *interfaces.ChatOptions) (*interfaces.ChatResult, error) {
	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages to Gemini format: %w", err)
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

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(maxTokens),
	}

	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, geminiContents, config)
	if err != nil {
		return nil, fmt.Errorf("chat generation failed: %w", err)
	}

	// Iterate candidates until non-empty text is found
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return nil, fmt.Errorf("no response generated from chat model")
	}

	var usage interfaces.TokenUsage
	if resp.UsageMetadata != nil {
		usage = interfaces.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &interfaces.ChatResult{
		Text:  response.String(),
		Usage: usage,
	}, nil
}

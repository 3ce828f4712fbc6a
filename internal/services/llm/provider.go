package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// DetectProvider determines the provider type from a model name. Called
// once at configuration time when a role names a model without naming its
// provider; dispatch is never re-sniffed per call.
func DetectProvider(model string) ProviderType {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "claude"):
		return ProviderClaude
	case strings.HasPrefix(m, "gemini"), strings.HasPrefix(m, "models/gemini"):
		return ProviderGemini
	default:
		return ""
	}
}

// Factory builds role-bound LLM services from configuration. Each of the
// router, RAG-answer, and direct-answer roles gets its own service bound
// to a provider, model, and token budget resolved once at startup.
type Factory struct {
	cfg    *common.Config
	logger arbor.ILogger
}

// NewFactory creates an LLM service factory.
func NewFactory(cfg *common.Config, logger arbor.ILogger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// ServiceForRole resolves the role's provider and model against the
// configured defaults and returns a bound service.
func (f *Factory) ServiceForRole(name string, role common.RoleConfig) (interfaces.LLMService, error) {
	if role.Provider == "" && role.Model != "" {
		if detected := DetectProvider(role.Model); detected != "" {
			role.Provider = common.LLMProvider(detected)
		}
	}
	resolved := f.cfg.ResolveRole(role)

	f.logger.Debug().
		Str("role", name).
		Str("provider", string(resolved.Provider)).
		Str("model", resolved.Model).
		Int("max_tokens", resolved.MaxTokens).
		Msg("Resolving LLM service for role")

	switch resolved.Provider {
	case common.LLMProviderClaude:
		return NewClaudeService(&f.cfg.Claude, resolved, f.logger)
	case common.LLMProviderGemini:
		return NewGeminiService(&f.cfg.Gemini, resolved, f.logger)
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q for role %s", common.ErrMissingConfig, resolved.Provider, name)
	}
}

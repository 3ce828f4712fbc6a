package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Qdrant      QdrantConfig     `toml:"qdrant"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
	Reranker    RerankerConfig   `toml:"reranker"`
	Retrieval   RetrievalConfig  `toml:"retrieval"`
	Agent       AgentConfig      `toml:"agent"`
	LLM         LLMConfig        `toml:"llm"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	API         APIConfig        `toml:"api"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// QdrantConfig contains the vector index connection settings
type QdrantConfig struct {
	URL        string `toml:"url"`         // Qdrant base URL (REST)
	APIKey     string `toml:"api_key"`     // Optional API key
	Collection string `toml:"collection"`  // Collection name (default: "sentiwiki_docs")
	VectorSize int    `toml:"vector_size"` // Expected vector dimension (default: 3072)
	Timeout    string `toml:"timeout"`     // Request timeout as duration string
}

// EmbeddingsConfig selects and configures the query/document embedder
type EmbeddingsConfig struct {
	Provider  string `toml:"provider"`  // "huggingface" (HTTP inference endpoint) or "gemini"
	Model     string `toml:"model"`     // Embedding model name (default: "BAAI/bge-large-en-v1.5")
	Endpoint  string `toml:"endpoint"`  // Inference endpoint base URL for the huggingface provider
	Timeout   string `toml:"timeout"`   // Request timeout as duration string
	Normalize bool   `toml:"normalize"` // Request L2-normalized vectors from the endpoint
}

// RerankerConfig configures the cross-encoder second-pass scorer
type RerankerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Model    string `toml:"model"`    // Cross-encoder model (default: "cross-encoder/ms-marco-MiniLM-L-12-v2")
	Endpoint string `toml:"endpoint"` // Inference endpoint base URL
	Timeout  string `toml:"timeout"`  // Request timeout as duration string
}

// RetrievalConfig holds the retrieval pipeline tuning constants.
// The hybrid alpha and optimal-length window are empirically tuned values
// kept as named, overridable settings.
type RetrievalConfig struct {
	TopK                 int     `toml:"top_k" validate:"gt=0"`
	RerankTopN           int     `toml:"rerank_top_n" validate:"gt=0"`
	HybridSearchAlpha    float64 `toml:"hybrid_search_alpha" validate:"gte=0,lte=1"`
	UseHybridSearch      bool    `toml:"use_hybrid_search"`
	UseReranking         bool    `toml:"use_reranking"`
	UseMetadataFiltering bool    `toml:"use_metadata_filtering"`
	MinOptimalWordCount  int     `toml:"min_optimal_word_count"`
	MaxOptimalWordCount  int     `toml:"max_optimal_word_count"`
}

// AgentConfig holds the router state machine settings
type AgentConfig struct {
	RelevanceThreshold     float64 `toml:"relevance_threshold" validate:"gte=0,lte=1"`
	RouterPrompt           string  `toml:"router_prompt"`            // Empty enables the keyword fallback router
	DecompositionPrompt    string  `toml:"decomposition_prompt"`     // Empty uses the built-in prompt
	RewritePrompt          string  `toml:"rewrite_prompt"`           // Empty uses the built-in prompt
	DirectSystemPrompt     string  `toml:"direct_system_prompt"`     // Empty uses the built-in prompt
	MinRelevancePercentage float64 `toml:"min_relevance_percentage"` // Sources below this percentage are dropped
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// RoleConfig configures one LLM role. An empty provider or model falls
// back to the default provider's settings.
type RoleConfig struct {
	Provider    LLMProvider `toml:"provider"`
	Model       string      `toml:"model"`
	MaxTokens   int         `toml:"max_tokens"`
	Temperature float32     `toml:"temperature"`
}

// LLMConfig contains the provider default plus per-role overrides for the
// router, RAG-answer, and direct-answer calls.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini"
	Router          RoleConfig  `toml:"router"`
	RAG             RoleConfig  `toml:"rag"`
	Direct          RoleConfig  `toml:"direct"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey  string `toml:"api_key"` // Anthropic API key (ANTHROPIC_API_KEY env takes priority)
	Model   string `toml:"model"`   // Default model when a role leaves it unset
	Timeout string `toml:"timeout"` // Operation timeout as duration string (default: "2m")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string `toml:"api_key"`         // Google API key (GEMINI_API_KEY env takes priority)
	Model          string `toml:"model"`           // Default model when a role leaves it unset
	EmbedModel     string `toml:"embed_model"`     // Embedding model (default: "gemini-embedding-001")
	EmbedDimension int    `toml:"embed_dimension"` // Output dimensionality (default: 3072)
	Timeout        string `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
}

// APIConfig contains HTTP API behavior settings
type APIConfig struct {
	RateLimitPerMinute int `toml:"rate_limit_per_minute"` // Ask endpoint rate limit (default: 60)
	RateLimitBurst     int `toml:"rate_limit_burst"`      // Token bucket burst (default: 10)
}

// SchedulerConfig contains the background collection stats refresh settings
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron spec or @every duration (default: "@every 5m")
}

// WebSocketConfig contains configuration for the agent event stream
type WebSocketConfig struct {
	Enabled bool `toml:"enabled"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in responsa.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8000,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",                     // Info level for production (debug|info|warn|error)
			Format: "text",                     // Human-readable text format (text|json)
			Output: []string{"stdout", "file"}, // Log to both console and file
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "sentiwiki_docs",
			VectorSize: 3072,
			Timeout:    "30s",
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "huggingface",
			Model:     "BAAI/bge-large-en-v1.5",
			Endpoint:  "http://localhost:8080",
			Timeout:   "60s",
			Normalize: true,
		},
		Reranker: RerankerConfig{
			Enabled:  true,
			Model:    "cross-encoder/ms-marco-MiniLM-L-12-v2",
			Endpoint: "http://localhost:8081",
			Timeout:  "60s",
		},
		Retrieval: RetrievalConfig{
			TopK:                 20,
			RerankTopN:           5,
			HybridSearchAlpha:    0.7, // Weight of the semantic score in the hybrid blend
			UseHybridSearch:      true,
			UseReranking:         true,
			UseMetadataFiltering: true,
			MinOptimalWordCount:  20,
			MaxOptimalWordCount:  300,
		},
		Agent: AgentConfig{
			RelevanceThreshold:     0.5,
			MinRelevancePercentage: 15.0,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			Router: RoleConfig{
				MaxTokens:   20, // Single-word classification
				Temperature: 0,
			},
			RAG: RoleConfig{
				MaxTokens:   1024,
				Temperature: 0.1,
			},
			Direct: RoleConfig{
				MaxTokens:   1024,
				Temperature: 0.7,
			},
		},
		Claude: ClaudeConfig{
			APIKey:  "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:   "claude-3-haiku-20240307",
			Timeout: "2m",
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key (GEMINI_API_KEY or config)
			Model:          "gemini-2.0-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 3072,
			Timeout:        "2m",
		},
		API: APIConfig{
			RateLimitPerMinute: 60,
			RateLimitBurst:     10,
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Schedule: "@every 5m",
		},
		WebSocket: WebSocketConfig{
			Enabled: true,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field constraints and the cross-field retrieval rules.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Retrieval.RerankTopN > c.Retrieval.TopK {
		return fmt.Errorf("invalid configuration: rerank_top_n (%d) cannot exceed top_k (%d)", c.Retrieval.RerankTopN, c.Retrieval.TopK)
	}
	if c.Retrieval.MinOptimalWordCount > c.Retrieval.MaxOptimalWordCount {
		return fmt.Errorf("invalid configuration: min_optimal_word_count (%d) cannot exceed max_optimal_word_count (%d)", c.Retrieval.MinOptimalWordCount, c.Retrieval.MaxOptimalWordCount)
	}

	switch c.LLM.DefaultProvider {
	case LLMProviderClaude, LLMProviderGemini:
	default:
		return fmt.Errorf("invalid configuration: unknown default LLM provider %q", c.LLM.DefaultProvider)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: RESPONSA_ENV, fallback: GO_ENV)
	if env := os.Getenv("RESPONSA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("RESPONSA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RESPONSA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("RESPONSA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("RESPONSA_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("RESPONSA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("RESPONSA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Qdrant configuration
	if url := os.Getenv("RESPONSA_QDRANT_URL"); url != "" {
		config.Qdrant.URL = url
	}
	if apiKey := os.Getenv("RESPONSA_QDRANT_API_KEY"); apiKey != "" {
		config.Qdrant.APIKey = apiKey
	}
	if collection := os.Getenv("RESPONSA_QDRANT_COLLECTION"); collection != "" {
		config.Qdrant.Collection = collection
	}
	if vectorSize := os.Getenv("RESPONSA_QDRANT_VECTOR_SIZE"); vectorSize != "" {
		if vs, err := strconv.Atoi(vectorSize); err == nil {
			config.Qdrant.VectorSize = vs
		}
	}

	// Embeddings configuration
	if provider := os.Getenv("RESPONSA_EMBEDDINGS_PROVIDER"); provider != "" {
		config.Embeddings.Provider = provider
	}
	if model := os.Getenv("RESPONSA_EMBEDDINGS_MODEL"); model != "" {
		config.Embeddings.Model = model
	}
	if endpoint := os.Getenv("RESPONSA_EMBEDDINGS_ENDPOINT"); endpoint != "" {
		config.Embeddings.Endpoint = endpoint
	}

	// Reranker configuration
	if enabled := os.Getenv("RESPONSA_RERANKER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Reranker.Enabled = e
		}
	}
	if model := os.Getenv("RESPONSA_RERANKER_MODEL"); model != "" {
		config.Reranker.Model = model
	}
	if endpoint := os.Getenv("RESPONSA_RERANKER_ENDPOINT"); endpoint != "" {
		config.Reranker.Endpoint = endpoint
	}

	// Retrieval configuration
	if topK := os.Getenv("RESPONSA_RETRIEVAL_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.TopK = k
		}
	}
	if topN := os.Getenv("RESPONSA_RETRIEVAL_RERANK_TOP_N"); topN != "" {
		if n, err := strconv.Atoi(topN); err == nil {
			config.Retrieval.RerankTopN = n
		}
	}
	if alpha := os.Getenv("RESPONSA_RETRIEVAL_HYBRID_ALPHA"); alpha != "" {
		if a, err := strconv.ParseFloat(alpha, 64); err == nil {
			config.Retrieval.HybridSearchAlpha = a
		}
	}

	// Agent configuration
	if threshold := os.Getenv("RESPONSA_AGENT_RELEVANCE_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Agent.RelevanceThreshold = t
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("RESPONSA_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // RESPONSA_ prefix takes priority
	}
	if model := os.Getenv("RESPONSA_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Gemini configuration
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("RESPONSA_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey // RESPONSA_ prefix takes priority
	}
	if model := os.Getenv("RESPONSA_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// LLM provider configuration
	if provider := os.Getenv("RESPONSA_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveRole fills a role config's blanks from the provider defaults.
func (c *Config) ResolveRole(role RoleConfig) RoleConfig {
	if role.Provider == "" {
		role.Provider = c.LLM.DefaultProvider
	}
	if role.Model == "" {
		switch role.Provider {
		case LLMProviderClaude:
			role.Model = c.Claude.Model
		case LLMProviderGemini:
			role.Model = c.Gemini.Model
		}
	}
	return role
}

// QdrantTimeout parses the configured Qdrant timeout, defaulting to 30s.
func (c *Config) QdrantTimeout() time.Duration {
	return parseDurationOr(c.Qdrant.Timeout, 30*time.Second)
}

// EmbeddingsTimeout parses the configured embeddings timeout, defaulting to 60s.
func (c *Config) EmbeddingsTimeout() time.Duration {
	return parseDurationOr(c.Embeddings.Timeout, 60*time.Second)
}

// RerankerTimeout parses the configured reranker timeout, defaulting to 60s.
func (c *Config) RerankerTimeout() time.Duration {
	return parseDurationOr(c.Reranker.Timeout, 60*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

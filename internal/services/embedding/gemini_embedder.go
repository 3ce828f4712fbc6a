package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/responsa/internal/common"
)

// GeminiEmbedder generates embeddings through the Gemini API with a
// configured output dimensionality.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewGeminiEmbedder creates a Gemini-backed embedder.
func NewGeminiEmbedder(cfg *common.GeminiConfig, model string, logger arbor.ILogger) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Google API key is required (set GEMINI_API_KEY, RESPONSA_GEMINI_API_KEY, or gemini.api_key)", common.ErrMissingConfig)
	}

	if model == "" {
		model = cfg.EmbedModel
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	dimension := cfg.EmbedDimension
	if dimension <= 0 {
		dimension = 3072
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", cfg.Timeout, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Debug().
		Str("model", model).
		Int("dimension", dimension).
		Msg("Gemini embedder initialized")

	return &GeminiEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// EmbedQuery embeds a single query string.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds a batch of document texts.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embed(ctx, texts)
}

// ModelName returns the embedding model identifier.
func (e *GeminiEmbedder) ModelName() string {
	return e.model
}

// Dimension returns the configured output dimensionality.
func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

func (e *GeminiEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	outputDim := int32(e.dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	result, err := e.client.Models.EmbedContent(timeoutCtx, e.model, contents, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil {
		return nil, fmt.Errorf("embedding generation returned no result")
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if len(emb.Values) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(emb.Values))
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
)

// HTTPEmbedder talks to a text-embeddings-inference style endpoint that
// serves sentence-transformer models (the BGE family among them). The
// endpoint owns model loading; this client treats it as a pure
// text-to-vector function.
type HTTPEmbedder struct {
	endpoint   string
	model      string
	dimension  int
	normalize  bool
	httpClient *http.Client
	logger     arbor.ILogger
}

type embedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
}

// NewHTTPEmbedder creates an embedder client for the configured endpoint.
func NewHTTPEmbedder(cfg *common.EmbeddingsConfig, dimension int, timeout time.Duration, logger arbor.ILogger) (*HTTPEmbedder, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: embeddings endpoint is required for the huggingface provider", common.ErrMissingConfig)
	}

	return &HTTPEmbedder{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		dimension: dimension,
		normalize: cfg.Normalize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// EmbedQuery embeds a single query string.
func (e *HTTPEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned no vectors")
	}
	return vectors[0], nil
}

// EmbedDocuments embeds a batch of document texts.
func (e *HTTPEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embed(ctx, texts)
}

// ModelName returns the embedding model identifier.
func (e *HTTPEmbedder) ModelName() string {
	return e.model
}

// Dimension returns the vector size this embedder produces.
func (e *HTTPEmbedder) Dimension() int {
	return e.dimension
}

func (e *HTTPEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Inputs: texts, Normalize: e.normalize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := e.endpoint + "/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("embedding endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.Unmarshal(respBody, &vectors); err != nil {
		return nil, fmt.Errorf("failed to parse embed response: %w", err)
	}

	e.logger.Debug().
		Int("texts", len(texts)).
		Int("vectors", len(vectors)).
		Dur("duration", time.Since(start)).
		Msg("Embedding batch completed")

	return vectors, nil
}

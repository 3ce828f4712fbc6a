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

// HTTPReranker talks to a cross-encoder rerank endpoint. Scores come back
// raw and unscaled; normalization belongs to the retrieval pipeline.
type HTTPReranker struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     arbor.ILogger
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewHTTPReranker creates a reranker client for the configured endpoint.
func NewHTTPReranker(cfg *common.RerankerConfig, timeout time.Duration, logger arbor.ILogger) (*HTTPReranker, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: reranker endpoint is required when reranking is enabled", common.ErrMissingConfig)
	}

	return &HTTPReranker{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Scores returns one raw cross-encoder score per text, in input order.
func (r *HTTPReranker) Scores(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts, RawScores: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := r.endpoint + "/rerank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rerank response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("rerank endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var results []rerankResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return nil, fmt.Errorf("failed to parse rerank response: %w", err)
	}

	// The endpoint returns results sorted by score; map back to input order
	scores := make([]float64, len(texts))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(texts) {
			return nil, fmt.Errorf("rerank response index %d out of range for %d texts", res.Index, len(texts))
		}
		scores[res.Index] = res.Score
	}

	r.logger.Debug().
		Int("texts", len(texts)).
		Dur("duration", time.Since(start)).
		Msg("Rerank batch completed")

	return scores, nil
}

// ModelName returns the reranker model identifier.
func (r *HTTPReranker) ModelName() string {
	return r.model
}

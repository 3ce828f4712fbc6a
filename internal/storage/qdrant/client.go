package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
)

// Client talks to Qdrant over its REST API. It serves a single
// collection, fixed at construction.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewClient builds a client for the configured collection.
func NewClient(cfg *common.QdrantConfig, timeout time.Duration, logger arbor.ILogger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// CollectionName returns the name of the collection this client serves.
func (c *Client) CollectionName() string {
	return c.collection
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// buildFilter converts equality conditions to Qdrant's filter grammar:
// every condition becomes a must match clause.
func buildFilter(filters map[string]interface{}) map[string]interface{} {
	if len(filters) == 0 {
		return nil
	}
	must := make([]map[string]interface{}, 0, len(filters))
	for key, value := range filters {
		must = append(must, map[string]interface{}{
			"key":   key,
			"match": map[string]interface{}{"value": value},
		})
	}
	return map[string]interface{}{"must": must}
}

// Search returns the nearest points to the query vector, with payloads.
func (c *Client) Search(ctx context.Context, vector []float32, limit int, filters map[string]interface{}) ([]interfaces.ScoredPoint, error) {
	reqBody := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter := buildFilter(filters); filter != nil {
		reqBody["filter"] = filter
	}

	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	respBody, err := c.doRequest(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var response struct {
		Result []struct {
			ID      json.RawMessage        `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	points := make([]interfaces.ScoredPoint, 0, len(response.Result))
	for _, r := range response.Result {
		points = append(points, interfaces.ScoredPoint{
			ID:      pointID(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}

	c.logger.Debug().
		Str("collection", c.collection).
		Int("limit", limit).
		Int("results", len(points)).
		Bool("filtered", len(filters) > 0).
		Msg("Vector search complete")

	return points, nil
}

// pointID renders a Qdrant point id, which the API returns as either an
// integer or a UUID string.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// collectionInfo fetches the collection's configuration and counters.
func (c *Client) collectionInfo(ctx context.Context) (vectorSize int, pointsCount int64, err error) {
	path := fmt.Sprintf("/collections/%s", c.collection)
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get collection info: %w", err)
	}

	var response struct {
		Result struct {
			PointsCount int64 `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return 0, 0, fmt.Errorf("failed to parse collection info: %w", err)
	}

	return response.Result.Config.Params.Vectors.Size, response.Result.PointsCount, nil
}

// CollectionVectorSize reports the collection's configured vector dimension.
func (c *Client) CollectionVectorSize(ctx context.Context) (int, error) {
	size, _, err := c.collectionInfo(ctx)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, fmt.Errorf("collection %s reports no vector size", c.collection)
	}
	return size, nil
}

// PointCount returns the number of points stored in the collection.
func (c *Client) PointCount(ctx context.Context) (int64, error) {
	_, count, err := c.collectionInfo(ctx)
	return count, err
}

// HealthCheck probes the Qdrant root endpoint. The dedicated health
// endpoint was removed in newer server versions, the root works on all.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/", nil)
	return err
}

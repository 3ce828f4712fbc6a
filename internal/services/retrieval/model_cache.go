package retrieval

import (
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/interfaces"
)

// EmbedderFactory constructs an embedder for a (provider, model) pair.
type EmbedderFactory func(provider, model string) (interfaces.Embedder, error)

// RerankerFactory constructs a reranker for a model name.
type RerankerFactory func(model string) (interfaces.Reranker, error)

// ModelCache shares one embedder and one reranker instance across every
// retriever in the process. Model instances are memory-heavy; retrievers
// serving different collections must share weights, not reload them.
//
// Requesting a different (provider, model) pair than the cached one swaps
// the cached instance with a warning rather than holding multiple copies.
// The swap is the only mutation point and is guarded by a double-checked
// read-then-lock-then-recheck sequence; inference on a cached instance is
// lock-free and may run concurrently.
type ModelCache struct {
	mu sync.RWMutex

	embedder    interfaces.Embedder
	embedderKey string

	reranker       interfaces.Reranker
	rerankerKey    string
	rerankerFailed bool

	newEmbedder EmbedderFactory
	newReranker RerankerFactory
	logger      arbor.ILogger
}

// NewModelCache creates a model cache backed by the given factories.
func NewModelCache(newEmbedder EmbedderFactory, newReranker RerankerFactory, logger arbor.ILogger) *ModelCache {
	return &ModelCache{
		newEmbedder: newEmbedder,
		newReranker: newReranker,
		logger:      logger,
	}
}

// GetEmbedder returns the shared embedder for the (provider, model) pair,
// loading it on first use.
func (c *ModelCache) GetEmbedder(provider, model string) (interfaces.Embedder, error) {
	key := provider + "/" + model

	c.mu.RLock()
	if c.embedder != nil && c.embedderKey == key {
		embedder := c.embedder
		c.mu.RUnlock()
		return embedder, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Recheck after acquiring the write lock
	if c.embedder != nil && c.embedderKey == key {
		return c.embedder, nil
	}

	if c.embedder != nil && c.embedderKey != key {
		c.logger.Warn().
			Str("cached", c.embedderKey).
			Str("requested", key).
			Msg("Replacing cached embedder with different model")
	}

	embedder, err := c.newEmbedder(provider, model)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedder %s: %w", key, err)
	}

	c.embedder = embedder
	c.embedderKey = key

	c.logger.Info().
		Str("provider", provider).
		Str("model", model).
		Int("dimension", embedder.Dimension()).
		Msg("Embedder loaded")

	return embedder, nil
}

// GetReranker returns the shared reranker, loading it on first use.
// Returns nil when reranking is disabled or a previous load for this
// model failed; a load failure disables reranking for the process rather
// than failing requests.
func (c *ModelCache) GetReranker(model string, enabled bool) interfaces.Reranker {
	if !enabled || model == "" {
		return nil
	}

	c.mu.RLock()
	if c.reranker != nil && c.rerankerKey == model {
		reranker := c.reranker
		c.mu.RUnlock()
		return reranker
	}
	if c.rerankerFailed && c.rerankerKey == model {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reranker != nil && c.rerankerKey == model {
		return c.reranker
	}
	if c.rerankerFailed && c.rerankerKey == model {
		return nil
	}

	if c.reranker != nil && c.rerankerKey != model {
		c.logger.Warn().
			Str("cached", c.rerankerKey).
			Str("requested", model).
			Msg("Replacing cached reranker with different model")
	}

	reranker, err := c.newReranker(model)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("model", model).
			Msg("Reranker load failed, reranking disabled")
		c.reranker = nil
		c.rerankerKey = model
		c.rerankerFailed = true
		return nil
	}

	c.reranker = reranker
	c.rerankerKey = model
	c.rerankerFailed = false

	c.logger.Info().
		Str("model", model).
		Msg("Reranker loaded")

	return reranker
}

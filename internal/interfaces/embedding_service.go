package interfaces

import "context"

// Embedder converts text into dense vectors. Implementations are safe for
// concurrent use; a single instance is shared across retrievers via the
// model cache.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of document texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the embedding model identifier.
	ModelName() string

	// Dimension returns the vector size this embedder produces.
	Dimension() int
}

// Reranker scores (query, text) pairs with a cross-encoder. Scores are
// raw and unscaled; the caller owns normalization.
type Reranker interface {
	// Scores returns one raw relevance score per text, in input order.
	Scores(ctx context.Context, query string, texts []string) ([]float64, error)

	// ModelName returns the reranker model identifier.
	ModelName() string
}

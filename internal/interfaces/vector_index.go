package interfaces

import "context"

// ScoredPoint is one nearest-neighbor search hit from the vector index.
type ScoredPoint struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// VectorIndex is the black-box nearest-neighbor index the retriever
// queries. Filters are equality conditions on scalar payload fields,
// ANDed together.
type VectorIndex interface {
	// Search returns the nearest points to the query vector. A nil or
	// empty filters map means unfiltered search.
	Search(ctx context.Context, vector []float32, limit int, filters map[string]interface{}) ([]ScoredPoint, error)

	// CollectionVectorSize reports the configured vector dimension of the
	// target collection. Returns an error when the collection cannot be
	// inspected; callers degrade to their configured default.
	CollectionVectorSize(ctx context.Context) (int, error)

	// CollectionName returns the name of the collection this index serves.
	CollectionName() string

	// PointCount returns the number of points stored in the collection.
	PointCount(ctx context.Context) (int64, error)

	// HealthCheck verifies connectivity to the index.
	HealthCheck(ctx context.Context) error
}

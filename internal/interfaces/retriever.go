package interfaces

import (
	"context"

	"github.com/ternarybob/responsa/internal/models"
)

// RetrieveOptions carries per-call overrides for a retrieval. Pointer
// fields are tri-state: nil means "use the configured default".
type RetrieveOptions struct {
	// TopK overrides the configured result count when > 0.
	TopK int

	// Filters, when non-nil, are used verbatim and suppress automatic
	// filter extraction and metadata boosting.
	Filters map[string]interface{}

	UseReranking       *bool
	UseHybrid          *bool
	AutoExtractFilters *bool
}

// Retriever runs the full retrieval pipeline for one query: embedding,
// index search, metadata boosting, and reranking.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]models.Chunk, error)
}

// Bool is a convenience for building tri-state option pointers.
func Bool(v bool) *bool { return &v }

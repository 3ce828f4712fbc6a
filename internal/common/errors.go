package common

import "errors"

// Hard failures allowed to escape the retrieval core. Every other
// pipeline error degrades to a fallback and is logged instead.
var (
	// ErrDimensionMismatch means the embedding model produces vectors of a
	// different size than the target collection expects. Continuing would
	// silently corrupt retrieval, so this fails fast and is never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrMissingConfig means a required setting (API key, endpoint,
	// collection) is absent.
	ErrMissingConfig = errors.New("missing configuration")
)

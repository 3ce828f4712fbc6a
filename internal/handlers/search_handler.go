package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/ternarybob/responsa/internal/services/metadata"
)

// maxSearchTopK caps the per-request result count.
const maxSearchTopK = 100

// SearchRequest is the request body for POST /api/search
type SearchRequest struct {
	Query              string                 `json:"query"`
	TopK               int                    `json:"top_k,omitempty"`
	Filters            map[string]interface{} `json:"filters,omitempty"`
	UseReranking       *bool                  `json:"use_reranking,omitempty"`
	UseHybrid          *bool                  `json:"use_hybrid,omitempty"`
	AutoExtractFilters *bool                  `json:"auto_extract_filters,omitempty"`
}

// SearchResponse is the response body for POST /api/search.
// Comparative is set when the results span more than one mission, so a
// caller building an answer knows to label which fact belongs to which.
type SearchResponse struct {
	Query       string         `json:"query"`
	Results     []models.Chunk `json:"results"`
	Count       int            `json:"count"`
	Comparative bool           `json:"comparative"`
}

// SearchHandler handles raw retrieval HTTP requests, exposing the
// pipeline without the agent layer on top
type SearchHandler struct {
	retriever interfaces.Retriever
	logger    arbor.ILogger
}

// NewSearchHandler creates a new search handler with dependencies
func NewSearchHandler(retriever interfaces.Retriever, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		retriever: retriever,
		logger:    logger,
	}
}

// SearchHandler handles POST /api/search requests
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Query == "" {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK < 0 {
		req.TopK = 0
	}
	if req.TopK > maxSearchTopK {
		req.TopK = maxSearchTopK
	}

	h.logger.Info().
		Str("query", req.Query).
		Int("top_k", req.TopK).
		Bool("filtered", len(req.Filters) > 0).
		Msg("Search request received")

	opts := interfaces.RetrieveOptions{
		TopK:               req.TopK,
		Filters:            req.Filters,
		UseReranking:       req.UseReranking,
		UseHybrid:          req.UseHybrid,
		AutoExtractFilters: req.AutoExtractFilters,
	}

	chunks, err := h.retriever.Retrieve(r.Context(), req.Query, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("query", req.Query).Msg("Search failed")
		WriteError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	WriteJSON(w, http.StatusOK, SearchResponse{
		Query:       req.Query,
		Results:     chunks,
		Count:       len(chunks),
		Comparative: metadata.ShouldUseComparativeResponse(chunks),
	})
}

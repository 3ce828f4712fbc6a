package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/ternarybob/responsa/internal/services/agent"
)

// maxQueryLength caps the accepted query size. Anything longer is a
// pasted document, not a question.
const maxQueryLength = 4096

// AskRequest is the request body for POST /api/ask
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse is the response body for POST /api/ask
type AskResponse struct {
	Answer     string                 `json:"answer"`
	Sources    []models.Source        `json:"sources"`
	Route      models.Route           `json:"route"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	DurationMs int64                  `json:"duration_ms"`
}

// AskHandler handles question answering HTTP requests
type AskHandler struct {
	graph   *agent.RouterGraph
	history interfaces.QueryHistoryStorage
	logger  arbor.ILogger
}

// NewAskHandler creates a new ask handler with dependencies
func NewAskHandler(graph *agent.RouterGraph, history interfaces.QueryHistoryStorage, logger arbor.ILogger) *AskHandler {
	return &AskHandler{
		graph:   graph,
		history: history,
		logger:  logger,
	}
}

// AskHandler handles POST /api/ask requests
func (h *AskHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Query == "" {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(req.Query) > maxQueryLength {
		WriteError(w, http.StatusBadRequest, "query is too long")
		return
	}

	h.logger.Info().
		Str("query", req.Query).
		Msg("Ask request received")

	start := time.Now()
	state, err := h.graph.Invoke(r.Context(), req.Query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Ask request aborted")
		WriteError(w, http.StatusServiceUnavailable, "Request cancelled or timed out")
		return
	}
	duration := time.Since(start)

	h.saveRecord(state, duration)

	WriteJSON(w, http.StatusOK, AskResponse{
		Answer:     state.Answer,
		Sources:    state.Sources,
		Route:      state.Route,
		Metadata:   state.Metadata,
		DurationMs: duration.Milliseconds(),
	})
}

// saveRecord persists the answered turn. History is best-effort; a write
// failure must not fail the response.
func (h *AskHandler) saveRecord(state *models.AgentState, duration time.Duration) {
	if h.history == nil {
		return
	}

	record := &models.QueryRecord{
		Query:            state.Query,
		Route:            state.Route,
		Answer:           state.Answer,
		SourceCount:      len(state.Sources),
		GradeScore:       state.GradeScore,
		RelevanceTop5Avg: state.RelevanceTop5Avg,
		RewriteAttempted: state.RewriteAttempted,
		DurationMs:       duration.Milliseconds(),
	}

	if err := h.history.SaveRecord(record); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to save query record")
	}
}

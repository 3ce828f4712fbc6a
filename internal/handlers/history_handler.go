package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/interfaces"
)

// HistoryHandler serves the stored query history
type HistoryHandler struct {
	history interfaces.QueryHistoryStorage
	logger  arbor.ILogger
}

// NewHistoryHandler creates a new history handler with dependencies
func NewHistoryHandler(history interfaces.QueryHistoryStorage, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// HistoryHandler handles GET /api/history?limit=N requests
func (h *HistoryHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 200 {
		limit = 200
	}

	records, err := h.history.ListRecords(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list query history")
		WriteError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	total, err := h.history.CountRecords()
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count query history")
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
		"total":   total,
	})
}

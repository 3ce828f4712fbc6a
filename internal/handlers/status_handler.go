package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
)

// StatusHandler serves the health endpoint. Collection stats are cached
// and refreshed by the background scheduler so health probes stay cheap.
type StatusHandler struct {
	index   interfaces.VectorIndex
	history interfaces.QueryHistoryStorage
	logger  arbor.ILogger

	mu          sync.RWMutex
	pointCount  int64
	refreshedAt time.Time
}

// NewStatusHandler creates a new status handler with dependencies
func NewStatusHandler(index interfaces.VectorIndex, history interfaces.QueryHistoryStorage, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		index:   index,
		history: history,
		logger:  logger,
	}
}

// RefreshStats updates the cached collection stats. Called on startup
// and on the scheduler's cadence.
func (h *StatusHandler) RefreshStats(ctx context.Context) error {
	count, err := h.index.PointCount(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Collection stats refresh failed")
		return err
	}

	h.mu.Lock()
	h.pointCount = count
	h.refreshedAt = time.Now().UTC()
	h.mu.Unlock()

	h.logger.Debug().
		Int64("points", count).
		Str("collection", h.index.CollectionName()).
		Msg("Collection stats refreshed")
	return nil
}

// HealthHandler handles GET /health requests
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := "ok"
	indexStatus := "ok"
	if err := h.index.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		indexStatus = err.Error()
	}

	h.mu.RLock()
	pointCount := h.pointCount
	refreshedAt := h.refreshedAt
	h.mu.RUnlock()

	var historyCount int
	if h.history != nil {
		if count, err := h.history.CountRecords(); err == nil {
			historyCount = count
		}
	}

	body := map[string]interface{}{
		"status":     status,
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
		"qdrant": map[string]interface{}{
			"status":     indexStatus,
			"collection": h.index.CollectionName(),
			"points":     pointCount,
		},
		"history_count": historyCount,
	}
	if !refreshedAt.IsZero() {
		body["stats_refreshed_at"] = refreshedAt.Format(time.RFC3339)
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, body)
}

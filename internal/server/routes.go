package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Query API
	mux.Handle("/api/ask", s.rateLimitMiddleware(http.HandlerFunc(s.app.AskHandler.AskHandler)))
	mux.HandleFunc("/api/search", s.app.SearchHandler.SearchHandler)
	mux.HandleFunc("/api/history", s.app.HistoryHandler.HistoryHandler)

	// Health
	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)

	// WebSocket agent progress events
	if s.app.Config.WebSocket.Enabled {
		mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)
	}

	return mux
}

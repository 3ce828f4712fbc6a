package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
)

func TestAskHandlerValidation(t *testing.T) {
	// The graph is never reached on a rejected request
	handler := NewAskHandler(nil, nil, arbor.NewLogger())

	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
	}{
		{"wrong method", http.MethodGet, `{"query":"q"}`, http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, `{broken`, http.StatusBadRequest},
		{"missing query", http.MethodPost, `{}`, http.StatusBadRequest},
		{"empty query", http.MethodPost, `{"query":""}`, http.StatusBadRequest},
		{"oversized query", http.MethodPost, `{"query":"` + strings.Repeat("a", maxQueryLength+1) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/ask", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.AskHandler(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/models"
)

// mockHistory implements interfaces.QueryHistoryStorage for testing
type mockHistory struct {
	saveFunc  func(record *models.QueryRecord) error
	listFunc  func(limit int) ([]*models.QueryRecord, error)
	countFunc func() (int, error)
}

func (m *mockHistory) SaveRecord(record *models.QueryRecord) error {
	if m.saveFunc != nil {
		return m.saveFunc(record)
	}
	return nil
}

func (m *mockHistory) ListRecords(limit int) ([]*models.QueryRecord, error) {
	if m.listFunc != nil {
		return m.listFunc(limit)
	}
	return nil, nil
}

func (m *mockHistory) CountRecords() (int, error) {
	if m.countFunc != nil {
		return m.countFunc()
	}
	return 0, nil
}

func TestHistoryHandler(t *testing.T) {
	var gotLimit int
	history := &mockHistory{
		listFunc: func(limit int) ([]*models.QueryRecord, error) {
			gotLimit = limit
			return []*models.QueryRecord{
				{ID: "r1", Query: "first", Route: models.RouteRAG},
				{ID: "r2", Query: "second", Route: models.RouteDirect},
			}, nil
		},
		countFunc: func() (int, error) { return 12, nil },
	}
	handler := NewHistoryHandler(history, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.HistoryHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotLimit != 50 {
		t.Errorf("limit = %d, want default 50", gotLimit)
	}

	var resp struct {
		Records []*models.QueryRecord `json:"records"`
		Count   int                   `json:"count"`
		Total   int                   `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Records) != 2 {
		t.Errorf("count = %d with %d records, want 2", resp.Count, len(resp.Records))
	}
	if resp.Total != 12 {
		t.Errorf("total = %d, want 12", resp.Total)
	}
}

func TestHistoryHandlerLimitParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"explicit limit", "?limit=10", 10},
		{"capped at 200", "?limit=999", 200},
		{"invalid ignored", "?limit=abc", 50},
		{"negative ignored", "?limit=-5", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			history := &mockHistory{
				listFunc: func(limit int) ([]*models.QueryRecord, error) {
					gotLimit = limit
					return nil, nil
				},
			}
			handler := NewHistoryHandler(history, arbor.NewLogger())

			req := httptest.NewRequest(http.MethodGet, "/api/history"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.HistoryHandler(rec, req)

			if gotLimit != tt.want {
				t.Errorf("limit = %d, want %d", gotLimit, tt.want)
			}
		})
	}
}

func TestHistoryHandlerStorageError(t *testing.T) {
	history := &mockHistory{
		listFunc: func(limit int) ([]*models.QueryRecord, error) {
			return nil, errors.New("db closed")
		},
	}
	handler := NewHistoryHandler(history, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.HistoryHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHistoryHandlerMethodNotAllowed(t *testing.T) {
	handler := NewHistoryHandler(&mockHistory{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.HistoryHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

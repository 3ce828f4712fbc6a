package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
)

// mockRetriever implements interfaces.Retriever for testing
type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query, opts)
	}
	return nil, nil
}

func executeSearch(handler *SearchHandler, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.SearchHandler(rec, req)
	return rec
}

func TestSearchHandler(t *testing.T) {
	retriever := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error) {
			return []models.Chunk{
				{ID: "c1", Title: "Doc 1", Text: "first", Score: 0.9},
				{ID: "c2", Title: "Doc 2", Text: "second", Score: 0.7},
			}, nil
		},
	}
	handler := NewSearchHandler(retriever, arbor.NewLogger())

	rec := executeSearch(handler, http.MethodPost, `{"query":"sentinel orbit"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Query != "sentinel orbit" {
		t.Errorf("query = %q, want echoed back", resp.Query)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Errorf("count = %d with %d results, want 2", resp.Count, len(resp.Results))
	}
	if resp.Comparative {
		t.Error("comparative = true for results without mission metadata")
	}
}

func TestSearchHandlerComparativeHint(t *testing.T) {
	retriever := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error) {
			return []models.Chunk{
				{ID: "c1", Text: "S1 swath", Score: 0.9, Metadata: map[string]interface{}{"mission": "S1"}},
				{ID: "c2", Text: "S2 swath", Score: 0.8, Metadata: map[string]interface{}{"mission": "S2"}},
			}, nil
		},
	}
	handler := NewSearchHandler(retriever, arbor.NewLogger())

	rec := executeSearch(handler, http.MethodPost, `{"query":"swath width"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Comparative {
		t.Error("comparative = false for results spanning two missions")
	}
}

func TestSearchHandlerValidation(t *testing.T) {
	handler := NewSearchHandler(&mockRetriever{}, arbor.NewLogger())

	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
	}{
		{"wrong method", http.MethodGet, `{"query":"q"}`, http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, `{broken`, http.StatusBadRequest},
		{"missing query", http.MethodPost, `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := executeSearch(handler, tt.method, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestSearchHandlerClampsTopK(t *testing.T) {
	var gotOpts interfaces.RetrieveOptions
	retriever := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error) {
			gotOpts = opts
			return nil, nil
		},
	}
	handler := NewSearchHandler(retriever, arbor.NewLogger())

	rec := executeSearch(handler, http.MethodPost, `{"query":"q","top_k":5000}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotOpts.TopK != maxSearchTopK {
		t.Errorf("TopK = %d, want clamped to %d", gotOpts.TopK, maxSearchTopK)
	}
}

func TestSearchHandlerPassesOptions(t *testing.T) {
	var gotOpts interfaces.RetrieveOptions
	retriever := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error) {
			gotOpts = opts
			return nil, nil
		},
	}
	handler := NewSearchHandler(retriever, arbor.NewLogger())

	body := `{"query":"q","top_k":7,"filters":{"mission":"S2"},"use_reranking":false,"use_hybrid":true}`
	rec := executeSearch(handler, http.MethodPost, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotOpts.TopK != 7 {
		t.Errorf("TopK = %d, want 7", gotOpts.TopK)
	}
	if gotOpts.Filters["mission"] != "S2" {
		t.Errorf("Filters = %v, want mission S2", gotOpts.Filters)
	}
	if gotOpts.UseReranking == nil || *gotOpts.UseReranking {
		t.Error("UseReranking: want explicit false")
	}
	if gotOpts.UseHybrid == nil || !*gotOpts.UseHybrid {
		t.Error("UseHybrid: want explicit true")
	}
	if gotOpts.AutoExtractFilters != nil {
		t.Error("AutoExtractFilters: want nil when omitted")
	}
}

func TestSearchHandlerRetrieverError(t *testing.T) {
	retriever := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string, opts interfaces.RetrieveOptions) ([]models.Chunk, error) {
			return nil, context.DeadlineExceeded
		},
	}
	handler := NewSearchHandler(retriever, arbor.NewLogger())

	rec := executeSearch(handler, http.MethodPost, `{"query":"q"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

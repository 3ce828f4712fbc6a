package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &common.QdrantConfig{
		URL:        server.URL,
		APIKey:     "test-key",
		Collection: "sentiwiki_docs",
	}
	client, err := NewClient(cfg, 5*time.Second, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, server
}

func TestSearch(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAPIKey string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/sentiwiki_docs/points/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		gotAPIKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"result": [
				{"id": "a1b2", "score": 0.91, "payload": {"title": "S1 Guide", "mission": "S1"}},
				{"id": 42, "score": 0.80, "payload": {"title": "S2 Guide"}}
			]
		}`))
	}))

	points, err := client.Search(context.Background(), []float32{0.1, 0.2}, 20, map[string]interface{}{"mission": "S1"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotAPIKey != "test-key" {
		t.Errorf("api-key header = %q", gotAPIKey)
	}
	if gotBody["limit"] != float64(20) {
		t.Errorf("limit = %v, want 20", gotBody["limit"])
	}
	if gotBody["with_payload"] != true {
		t.Error("with_payload not set")
	}

	filter, ok := gotBody["filter"].(map[string]interface{})
	if !ok {
		t.Fatal("filter missing from request")
	}
	must, ok := filter["must"].([]interface{})
	if !ok || len(must) != 1 {
		t.Fatalf("filter.must = %v, want one condition", filter["must"])
	}
	cond := must[0].(map[string]interface{})
	if cond["key"] != "mission" {
		t.Errorf("condition key = %v, want mission", cond["key"])
	}

	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if points[0].ID != "a1b2" || points[0].Score != 0.91 {
		t.Errorf("first point = %+v", points[0])
	}
	if points[1].ID != "42" {
		t.Errorf("integer point id = %q, want \"42\"", points[1].ID)
	}
	if points[0].Payload["title"] != "S1 Guide" {
		t.Errorf("payload = %v", points[0].Payload)
	}
}

func TestSearchUnfiltered(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, present := body["filter"]; present {
			t.Error("filter present in unfiltered search request")
		}
		_, _ = w.Write([]byte(`{"result": []}`))
	}))

	points, err := client.Search(context.Background(), []float32{0.1}, 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(points) != 0 {
		t.Errorf("len = %d, want 0", len(points))
	}
}

func TestSearchServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status": {"error": "collection not found"}}`, http.StatusNotFound)
	}))

	_, err := client.Search(context.Background(), []float32{0.1}, 5, nil)
	if err == nil {
		t.Fatal("Search() error = nil, want error on 404")
	}
}

func TestCollectionVectorSize(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/sentiwiki_docs" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"result": {
				"points_count": 15000,
				"config": {"params": {"vectors": {"size": 3072, "distance": "Cosine"}}}
			}
		}`))
	}))

	size, err := client.CollectionVectorSize(context.Background())
	if err != nil {
		t.Fatalf("CollectionVectorSize() error = %v", err)
	}
	if size != 3072 {
		t.Errorf("size = %d, want 3072", size)
	}

	count, err := client.PointCount(context.Background())
	if err != nil {
		t.Fatalf("PointCount() error = %v", err)
	}
	if count != 15000 {
		t.Errorf("count = %d, want 15000", count)
	}
}

func TestCollectionVectorSizeMissing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {"points_count": 0}}`))
	}))

	_, err := client.CollectionVectorSize(context.Background())
	if err == nil {
		t.Fatal("CollectionVectorSize() error = nil, want error when size absent")
	}
}

func TestHealthCheck(t *testing.T) {
	var hits int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			hits++
		}
		_, _ = w.Write([]byte(`{"title": "qdrant"}`))
	}))

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if hits != 1 {
		t.Errorf("root endpoint hits = %d, want 1", hits)
	}
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/interfaces"
)

func TestWebSocketPublishFanOut(t *testing.T) {
	handler := NewWebSocketHandler(arbor.NewLogger())

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	numClients := 3
	conns := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("failed to connect client %d: %v", i, err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	// Wait for the server side to register every connection
	deadline := time.Now().Add(2 * time.Second)
	for handler.ClientCount() < numClients {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", handler.ClientCount(), numClients)
		}
		time.Sleep(10 * time.Millisecond)
	}

	sent := interfaces.AgentEvent{
		Step:   "retrieve",
		Query:  "sentinel orbit",
		Detail: map[string]interface{}{"num_docs": 3},
	}
	handler.Publish(sent)

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got interfaces.AgentEvent
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("client %d read failed: %v", i, err)
		}
		if got.Step != sent.Step || got.Query != sent.Query {
			t.Errorf("client %d received %+v, want %+v", i, got, sent)
		}
		if got.Detail["num_docs"] != float64(3) {
			t.Errorf("client %d detail = %v, want num_docs 3", i, got.Detail)
		}
	}
}

func TestWebSocketClientCleanup(t *testing.T) {
	handler := NewWebSocketHandler(arbor.NewLogger())

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for handler.ClientCount() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for handler.ClientCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d after close, want 0", handler.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketPublishWithNoClients(t *testing.T) {
	handler := NewWebSocketHandler(arbor.NewLogger())

	// Must not panic or block
	handler.Publish(interfaces.AgentEvent{Step: "router", Query: "q"})

	if handler.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", handler.ClientCount())
	}
}

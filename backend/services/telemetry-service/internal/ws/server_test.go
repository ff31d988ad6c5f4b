package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscribers = %d, want %d", hub.Subscribers(), want)
}

func TestHubBroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	server := NewServer(hub, time.Second, zap.NewNop())

	ts := httptest.NewServer(http.HandlerFunc(server.HandleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForSubscribers(t, hub, 1)

	hub.Broadcast("telemetry", map[string]string{"roverId": "rover-001"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Type != "telemetry" {
		t.Errorf("type = %q, want telemetry", envelope.Type)
	}
	if !strings.Contains(string(envelope.Data), "rover-001") {
		t.Errorf("data = %s, want rover id", envelope.Data)
	}
}

func TestHubRemovesClosedSubscriber(t *testing.T) {
	hub := NewHub()
	server := NewServer(hub, time.Second, zap.NewNop())

	ts := httptest.NewServer(http.HandlerFunc(server.HandleWS))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitForSubscribers(t, hub, 1)
	conn.Close()
	waitForSubscribers(t, hub, 0)

	// Broadcasting with no subscribers must not panic.
	hub.Broadcast("telemetry", map[string]string{"roverId": "rover-001"})
}

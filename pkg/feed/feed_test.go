package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), n)
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	srv := httptest.NewServer(h)
	defer srv.Close()

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	waitForClients(t, h, 2)

	h.Highlight("item-42")

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Kind != KindHighlight || ev.ItemID != "item-42" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Time.IsZero() {
			t.Error("event time not stamped")
		}
	}
}

func TestHubEventKinds(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClients(t, h, 1)

	h.Transcript("user", "add milk to the list")
	h.SessionState("listening")
	h.Speaking(true)

	want := []EventKind{KindTranscript, KindSessionState, KindSpeaking}
	for i, kind := range want {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal %d: %v", i, err)
		}
		if ev.Kind != kind {
			t.Errorf("event %d kind = %q, want %q", i, ev.Kind, kind)
		}
	}
}

func TestHubClientDisconnect(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClients(t, h, 1)
	conn.Close()
	waitForClients(t, h, 0)

	// Publishing with no clients is a no-op.
	h.Highlight("item-1")
}

func TestHubClose(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClients(t, h, 1)

	h.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	if h.ClientCount() != 0 {
		t.Errorf("client count after close = %d", h.ClientCount())
	}
}

package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeEndpoint is a minimal server side of the duplex protocol: it checks
// the setup message, acknowledges it and then hands the connection to fn.
func fakeEndpoint(t *testing.T, fn func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		var setup setupMessage
		if err := json.Unmarshal(data, &setup); err != nil || setup.Setup == nil {
			t.Errorf("bad setup message: %s", data)
			return
		}
		if err := conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}}); err != nil {
			return
		}
		if fn != nil {
			fn(conn)
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTest(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, &Config{
		APIKey: "test-key",
		Model:  "models/test",
		Host:   wsURL(srv),
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDialHandshake(t *testing.T) {
	srv := fakeEndpoint(t, nil)
	defer srv.Close()
	c := dialTest(t, srv)
	if c == nil {
		t.Fatal("nil client")
	}
}

func TestDialRejectsBadAck(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
		conn.WriteJSON(map[string]any{"serverContent": map[string]any{}})
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), &Config{Host: wsURL(srv)})
	if err == nil {
		t.Fatal("Dial accepted a connection without a setup ack")
	}
}

func TestRecvDecodesAudioAndTurn(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	srv := fakeEndpoint(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]any{
			"serverContent": map[string]any{
				"modelTurn": map[string]any{
					"parts": []map[string]any{{
						"inlineData": map[string]any{
							"mimeType": "audio/pcm;rate=24000",
							"data":     base64.StdEncoding.EncodeToString(pcm),
						},
					}},
				},
			},
		})
		conn.WriteJSON(map[string]any{
			"serverContent": map[string]any{"turnComplete": true},
		})
		time.Sleep(100 * time.Millisecond)
	})
	defer srv.Close()

	c := dialTest(t, srv)
	var got []*Event
	for event, err := range c.Recv() {
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		got = append(got, event)
		if event.Type == EventTurnComplete {
			break
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Type != EventAudio || string(got[0].Audio) != string(pcm) {
		t.Errorf("first event = %v audio %v", got[0].Type, got[0].Audio)
	}
	if got[1].Type != EventTurnComplete {
		t.Errorf("second event = %v, want turn complete", got[1].Type)
	}
}

func TestRecvInterruptionPrecedesNewAudio(t *testing.T) {
	srv := fakeEndpoint(t, func(conn *websocket.Conn) {
		// The endpoint folds the barge-in flag and the first chunk of the
		// next turn into a single message.
		conn.WriteJSON(map[string]any{
			"serverContent": map[string]any{
				"interrupted": true,
				"modelTurn": map[string]any{
					"parts": []map[string]any{{
						"inlineData": map[string]any{
							"mimeType": "audio/pcm;rate=24000",
							"data":     base64.StdEncoding.EncodeToString([]byte{9, 9}),
						},
					}},
				},
			},
		})
		time.Sleep(100 * time.Millisecond)
	})
	defer srv.Close()

	c := dialTest(t, srv)
	var types []EventType
	for event, err := range c.Recv() {
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		types = append(types, event.Type)
		if len(types) == 2 {
			break
		}
	}
	if types[0] != EventInterrupted || types[1] != EventAudio {
		t.Errorf("event order = %v, want [interrupted audio]", types)
	}
}

func TestRecvDecodesToolCalls(t *testing.T) {
	srv := fakeEndpoint(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]any{
			"toolCall": map[string]any{
				"functionCalls": []map[string]any{
					{"id": "fc-1", "name": "create_task", "args": map[string]any{"task": "Buy milk"}},
					{"id": "fc-2", "name": "get_weather", "args": map[string]any{}},
				},
			},
		})
		time.Sleep(100 * time.Millisecond)
	})
	defer srv.Close()

	c := dialTest(t, srv)
	for event, err := range c.Recv() {
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if event.Type != EventToolCall {
			t.Fatalf("event type = %v, want tool call", event.Type)
		}
		if len(event.Calls) != 2 {
			t.Fatalf("got %d calls, want 2", len(event.Calls))
		}
		if event.Calls[0].ID != "fc-1" || event.Calls[0].Name != "create_task" {
			t.Errorf("call 0 = %+v", event.Calls[0])
		}
		if !strings.Contains(event.Calls[0].Args, "Buy milk") {
			t.Errorf("call 0 args = %q", event.Calls[0].Args)
		}
		break
	}
}

func TestSendAudioReachesServer(t *testing.T) {
	received := make(chan string, 1)
	srv := fakeEndpoint(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg realtimeInputMessage
		if json.Unmarshal(data, &msg) == nil && msg.RealtimeInput != nil && msg.RealtimeInput.Audio != nil {
			received <- msg.RealtimeInput.Audio.Data
		}
	})
	defer srv.Close()

	c := dialTest(t, srv)
	pcm := []byte{1, 2, 3, 4}
	if err := c.SendAudio(pcm); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	select {
	case data := <-received:
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil || string(decoded) != string(pcm) {
			t.Errorf("server received %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestSendToolResults(t *testing.T) {
	received := make(chan *toolResponseMessage, 1)
	srv := fakeEndpoint(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg toolResponseMessage
		if json.Unmarshal(data, &msg) == nil && msg.ToolResponse != nil {
			received <- &msg
		}
	})
	defer srv.Close()

	c := dialTest(t, srv)
	err := c.SendToolResults([]ToolResult{
		{ID: "fc-1", Name: "create_task", Output: "Added the task."},
	})
	if err != nil {
		t.Fatalf("SendToolResults: %v", err)
	}
	select {
	case msg := <-received:
		frs := msg.ToolResponse.FunctionResponses
		if len(frs) != 1 || frs[0].ID != "fc-1" || frs[0].Response["output"] != "Added the task." {
			t.Errorf("server received %+v", frs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the tool response")
	}
}

func TestDialRequestsTranscription(t *testing.T) {
	setups := make(chan map[string]any, 2)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var setup map[string]any
		if json.Unmarshal(data, &setup) == nil {
			setups <- setup
		}
		conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, &Config{APIKey: "k", Model: "m", Host: wsURL(srv), Transcription: true})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c.Close()

	s, _ := (<-setups)["setup"].(map[string]any)
	if _, ok := s["inputAudioTranscription"]; !ok {
		t.Error("setup does not request input transcription")
	}
	if _, ok := s["outputAudioTranscription"]; !ok {
		t.Error("setup does not request output transcription")
	}

	c, err = Dial(ctx, &Config{APIKey: "k", Model: "m", Host: wsURL(srv)})
	if err != nil {
		t.Fatalf("Dial without transcription: %v", err)
	}
	c.Close()

	s, _ = (<-setups)["setup"].(map[string]any)
	if _, ok := s["inputAudioTranscription"]; ok {
		t.Error("transcription requested without the flag")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := fakeEndpoint(t, func(conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	defer srv.Close()

	c := dialTest(t, srv)
	for i := 0; i < 3; i++ {
		if err := c.Close(); err != nil {
			t.Errorf("Close %d: %v", i, err)
		}
	}
	if err := c.SendAudio([]byte{1}); err == nil {
		t.Error("SendAudio succeeded after Close")
	}
}

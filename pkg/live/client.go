package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"
)

// DefaultHost is the production inference endpoint.
const DefaultHost = "generativelanguage.googleapis.com"

const bidiPath = "/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// EventType classifies one received server event.
type EventType int

const (
	EventAudio EventType = iota + 1
	EventText
	EventInputTranscript
	EventOutputTranscript
	EventInterrupted
	EventTurnComplete
	EventToolCall
	EventToolCancel
	EventGoAway
)

func (t EventType) String() string {
	switch t {
	case EventAudio:
		return "audio"
	case EventText:
		return "text"
	case EventInputTranscript:
		return "input_transcript"
	case EventOutputTranscript:
		return "output_transcript"
	case EventInterrupted:
		return "interrupted"
	case EventTurnComplete:
		return "turn_complete"
	case EventToolCall:
		return "tool_call"
	case EventToolCancel:
		return "tool_cancel"
	case EventGoAway:
		return "go_away"
	default:
		return "unknown"
	}
}

// FunctionCall is one tool invocation requested by the endpoint. Args is the
// raw JSON argument object.
type FunctionCall struct {
	ID   string
	Name string
	Args string
}

// ToolResult answers one FunctionCall with a speakable output string.
type ToolResult struct {
	ID     string
	Name   string
	Output string
}

// Event is one decoded server event.
type Event struct {
	Type EventType
	// Audio is raw 16-bit PCM for EventAudio.
	Audio []byte
	// Text carries model text or transcription text.
	Text string
	// Calls is set for EventToolCall.
	Calls []FunctionCall
	// CanceledIDs is set for EventToolCancel.
	CanceledIDs []string
}

// Config configures a connection.
type Config struct {
	// APIKey authenticates the websocket handshake.
	APIKey string
	// Model is the fully qualified model name, e.g. "models/gemini-2.0-flash-live-001".
	Model string
	// Host overrides DefaultHost; a host starting with "ws://" or "wss://"
	// is used verbatim (tests point this at a local server).
	Host string
	// SystemInstruction is embedded in the setup message.
	SystemInstruction string
	// Tools is the operation catalogue offered to the model.
	Tools []*genai.FunctionDeclaration
	// Voice selects the prebuilt synthesis voice; empty for the default.
	Voice string
	// Transcription asks the endpoint to stream transcripts of both the
	// user's speech and the synthesized replies alongside the audio.
	Transcription bool
	// Dialer overrides websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func (c *Config) endpoint() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return host + "?key=" + url.QueryEscape(c.APIKey)
	}
	return "wss://" + host + bidiPath + "?key=" + url.QueryEscape(c.APIKey)
}

// Client is one duplex connection. Writes are serialized; received events
// are read through Recv.
type Client struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	recvChan  chan *Event
	errChan   chan error
	closeChan chan struct{}
	closeOnce sync.Once
}

// Dial connects, performs the setup handshake and starts the receive loop.
func Dial(ctx context.Context, cfg *Config) (*Client, error) {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, cfg.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("live: connect: %w", err)
	}

	c := &Client{
		conn:      conn,
		recvChan:  make(chan *Event, 100),
		errChan:   make(chan error, 1),
		closeChan: make(chan struct{}),
	}

	setup := &setupMessage{Setup: &setupPayload{
		Model: cfg.Model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}}
	if cfg.Voice != "" {
		setup.Setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: &voiceConfig{
				PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: cfg.SystemInstruction}},
		}
	}
	if len(cfg.Tools) > 0 {
		setup.Setup.Tools = []*genai.Tool{{FunctionDeclarations: cfg.Tools}}
	}
	if cfg.Transcription {
		setup.Setup.InputAudioTranscription = &audioTranscriptionConfig{}
		setup.Setup.OutputAudioTranscription = &audioTranscriptionConfig{}
	}

	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("live: send setup: %w", err)
	}

	// The first server message acknowledges the setup.
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("live: read setup ack: %w", err)
	}
	var ack serverMessage
	if err := json.Unmarshal(data, &ack); err != nil || ack.SetupComplete == nil {
		conn.Close()
		return nil, fmt.Errorf("live: unexpected setup response: %s", data)
	}

	go c.receiveLoop()
	return c, nil
}

// SendAudio streams one PCM frame to the endpoint.
func (c *Client) SendAudio(pcm []byte) error {
	msg := &realtimeInputMessage{RealtimeInput: &realtimeInput{
		Audio: &inlineBlob{
			MIMEType: "audio/pcm;rate=16000",
			Data:     base64.StdEncoding.EncodeToString(pcm),
		},
	}}
	return c.writeJSON(msg)
}

// SendText submits a complete user text turn.
func (c *Client) SendText(text string) error {
	msg := &clientContentMessage{ClientContent: &clientContent{
		Turns: []*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: text}},
		}},
		TurnComplete: true,
	}}
	return c.writeJSON(msg)
}

// SendToolResults answers a tool-call batch.
func (c *Client) SendToolResults(results []ToolResult) error {
	responses := make([]*functionResponse, 0, len(results))
	for _, r := range results {
		responses = append(responses, &functionResponse{
			ID:       r.ID,
			Name:     r.Name,
			Response: map[string]any{"output": r.Output},
		})
	}
	return c.writeJSON(&toolResponseMessage{ToolResponse: &toolResponsePayload{
		FunctionResponses: responses,
	}})
}

func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.closeChan:
		return fmt.Errorf("live: connection closed")
	default:
	}
	return c.conn.WriteJSON(v)
}

// Recv yields decoded server events until the connection closes or fails.
func (c *Client) Recv() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for {
			select {
			case event, ok := <-c.recvChan:
				if !ok {
					return
				}
				if !yield(event, nil) {
					return
				}
			case err := <-c.errChan:
				yield(nil, err)
				return
			case <-c.closeChan:
				return
			}
		}
	}
}

// Close tears down the connection. Safe to call concurrently and repeatedly.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		c.writeMu.Lock()
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.conn.Close()
	})
	return nil
}

func (c *Client) receiveLoop() {
	defer close(c.recvChan)

	for {
		select {
		case <-c.closeChan:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeChan:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					select {
					case c.errChan <- fmt.Errorf("live: read: %w", err):
					default:
					}
				}
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		for _, event := range decodeServerMessage(&msg) {
			select {
			case c.recvChan <- event:
			case <-c.closeChan:
				return
			}
		}
	}
}

// decodeServerMessage flattens one wire message into zero or more events,
// in the order a consumer must observe them: an interruption always precedes
// any audio of the next turn, and turn completion comes last.
func decodeServerMessage(msg *serverMessage) []*Event {
	var events []*Event

	if sc := msg.ServerContent; sc != nil {
		if sc.Interrupted {
			events = append(events, &Event{Type: EventInterrupted})
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			events = append(events, &Event{Type: EventInputTranscript, Text: sc.InputTranscription.Text})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			events = append(events, &Event{Type: EventOutputTranscript, Text: sc.OutputTranscription.Text})
		}
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					events = append(events, &Event{Type: EventAudio, Audio: part.InlineData.Data})
				}
				if part.Text != "" {
					events = append(events, &Event{Type: EventText, Text: part.Text})
				}
			}
		}
		if sc.TurnComplete {
			events = append(events, &Event{Type: EventTurnComplete})
		}
	}

	if tc := msg.ToolCall; tc != nil {
		calls := make([]FunctionCall, 0, len(tc.FunctionCalls))
		for _, fc := range tc.FunctionCalls {
			calls = append(calls, FunctionCall{
				ID:   fc.ID,
				Name: fc.Name,
				Args: string(fc.Args),
			})
		}
		events = append(events, &Event{Type: EventToolCall, Calls: calls})
	}

	if tcc := msg.ToolCallCancellation; tcc != nil {
		events = append(events, &Event{Type: EventToolCancel, CanceledIDs: tcc.IDs})
	}

	if msg.GoAway != nil {
		events = append(events, &Event{Type: EventGoAway})
	}

	return events
}

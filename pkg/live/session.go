package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/voxdesk/voxdesk/pkg/audio"
)

// closeTimeout bounds how long Stop waits for the receive loop to drain
// after the connection is torn down.
const closeTimeout = 3 * time.Second

// ToolHandler executes one tool-call batch and returns one result per call.
type ToolHandler func(ctx context.Context, calls []FunctionCall) []ToolResult

// StartRequest carries the per-session setup: the system instruction and
// tool catalogue change between restarts as the organizer state evolves.
type StartRequest struct {
	SystemInstruction string
	Tools             []*genai.FunctionDeclaration
	// InitialText, when set, is submitted as the first user turn right
	// after the handshake so the model speaks without waiting for audio.
	InitialText string
}

// Session drives one voice conversation: it pumps microphone frames up the
// connection and plays synthesized speech down, forwarding tool calls to the
// handler. A Session is reusable: Stop returns it to idle and Start may be
// called again. A transport failure leaves it resting in the error state;
// both Start and Stop clear it.
type Session struct {
	cfg      *Config
	capture  audio.Capture
	playback *audio.Playback
	logger   *slog.Logger

	onToolCalls    ToolHandler
	onTranscript   func(event EventType, text string)
	onTurnComplete func()
	onStateChange  func(SessionState)

	mu     sync.Mutex
	state  SessionState
	client *Client
	cancel context.CancelFunc
	// done is closed when the receive loop exits.
	done chan struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithToolHandler sets the tool-call handler.
func WithToolHandler(h ToolHandler) SessionOption {
	return func(s *Session) { s.onToolCalls = h }
}

// WithOnTranscript sets the transcription callback. event is
// EventInputTranscript or EventOutputTranscript.
func WithOnTranscript(fn func(event EventType, text string)) SessionOption {
	return func(s *Session) { s.onTranscript = fn }
}

// WithOnTurnComplete sets a callback fired after each completed model turn.
func WithOnTurnComplete(fn func()) SessionOption {
	return func(s *Session) { s.onTurnComplete = fn }
}

// WithOnStateChange sets a callback fired on every state transition.
func WithOnStateChange(fn func(SessionState)) SessionOption {
	return func(s *Session) { s.onStateChange = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an idle session over the given transport configuration
// and audio endpoints.
func NewSession(cfg *Config, capture audio.Capture, playback *audio.Playback, opts ...SessionOption) *Session {
	s := &Session{
		cfg:      cfg,
		capture:  capture,
		playback: playback,
		logger:   slog.Default(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Speaking reports whether synthesized speech is currently playing.
func (s *Session) Speaking() bool {
	return s.playback.Speaking()
}

func (s *Session) setStateLocked(st SessionState) {
	if s.state == st {
		return
	}
	s.state = st
	if s.onStateChange != nil {
		// Synchronous so observers see transitions in order. The callback
		// must not call back into the session.
		s.onStateChange(st)
	}
}

// Start acquires the microphone, connects and begins streaming. It returns
// an error when the session is neither idle nor resting after a transport
// failure. A connect failure leaves the session in the error state; the
// next Start clears it.
func (s *Session) Start(ctx context.Context, req StartRequest) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateError {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("live: cannot start session in state %s", st)
	}
	prev := s.done
	s.done = nil
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	if prev != nil {
		// The previous receive loop may still be draining its teardown;
		// wait it out so it cannot touch the resources acquired below.
		select {
		case <-prev:
		case <-time.After(closeTimeout):
			s.logger.Warn("live: previous receive loop did not drain before restart")
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())

	fail := func(err error) error {
		cancel()
		s.capture.Close()
		s.mu.Lock()
		// A Stop that raced the handshake already owns the state.
		if s.state == StateConnecting {
			s.setStateLocked(StateError)
		}
		s.mu.Unlock()
		return err
	}

	if err := s.capture.Start(runCtx); err != nil {
		return fail(fmt.Errorf("live: acquire microphone: %w", err))
	}

	cfg := *s.cfg
	cfg.SystemInstruction = req.SystemInstruction
	cfg.Tools = req.Tools
	client, err := Dial(ctx, &cfg)
	if err != nil {
		return fail(err)
	}

	if req.InitialText != "" {
		if err := client.SendText(req.InitialText); err != nil {
			client.Close()
			return fail(fmt.Errorf("live: send initial turn: %w", err))
		}
	}

	done := make(chan struct{})
	s.mu.Lock()
	if s.state != StateConnecting {
		// A concurrent Stop tore the session down while the handshake was
		// in flight. Its teardown wins; release everything this start
		// acquired instead of resurrecting the session.
		s.mu.Unlock()
		cancel()
		client.Close()
		s.capture.Close()
		return fmt.Errorf("live: session stopped during connect")
	}
	s.client = client
	s.cancel = cancel
	s.done = done
	s.setStateLocked(StateListening)
	s.mu.Unlock()

	go s.pumpMicrophone(runCtx, client)
	go s.run(runCtx, client, done)

	s.logger.Info("live: session started", "model", cfg.Model, "tools", len(cfg.Tools))
	return nil
}

// Stop tears the session down and returns it to idle. It is safe to call
// concurrently and repeatedly; every caller observes a complete teardown.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateClosing {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateClosing)
	client, cancel, done := s.client, s.cancel, s.done
	s.client, s.cancel, s.done = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Close()
	}
	s.capture.Close()
	s.playback.Interrupt()

	if done != nil {
		select {
		case <-done:
		case <-time.After(closeTimeout):
			s.logger.Warn("live: receive loop did not drain before deadline")
		}
	}

	s.mu.Lock()
	s.setStateLocked(StateIdle)
	s.mu.Unlock()
	s.logger.Info("live: session stopped")
}

// pumpMicrophone reads raw capture PCM, reframes it and streams it up the
// connection until the session context is canceled.
func (s *Session) pumpMicrophone(ctx context.Context, client *Client) {
	enc := audio.NewFrameEncoder(audio.InputSampleRate, audio.DefaultFrameDuration)
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return
		}
		n, err := s.capture.Read(buf)
		if n > 0 {
			for _, frame := range enc.PushBytes(buf[:n]) {
				if serr := client.SendAudio(frame); serr != nil {
					if ctx.Err() == nil {
						s.logger.Warn("live: send audio", "error", serr)
					}
					return
				}
			}
		}
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("live: microphone read", "error", err)
			}
			return
		}
	}
}

// run consumes server events until the connection closes. Tool results are
// discarded when teardown began while the handler was running.
func (s *Session) run(ctx context.Context, client *Client, done chan struct{}) {
	defer close(done)

	for event, err := range client.Recv() {
		if err != nil {
			s.failTransport(err)
			return
		}

		switch event.Type {
		case EventAudio:
			s.playback.Schedule(event.Audio)
		case EventInterrupted:
			s.playback.Interrupt()
		case EventInputTranscript, EventOutputTranscript:
			if s.onTranscript != nil {
				s.onTranscript(event.Type, event.Text)
			}
		case EventToolCall:
			s.handleToolCalls(ctx, client, event.Calls)
		case EventTurnComplete:
			if s.onTurnComplete != nil {
				s.onTurnComplete()
			}
		case EventGoAway:
			s.logger.Info("live: endpoint requested disconnect")
		}
	}
}

func (s *Session) handleToolCalls(ctx context.Context, client *Client, calls []FunctionCall) {
	if s.onToolCalls == nil {
		return
	}
	results := s.onToolCalls(ctx, calls)

	s.mu.Lock()
	active := s.state == StateListening && s.client == client
	s.mu.Unlock()
	if !active {
		// The session was stopped while handlers ran; the next session
		// starts from a fresh snapshot, so these answers have no home.
		s.logger.Debug("live: discarding tool results after teardown", "count", len(results))
		return
	}
	if err := client.SendToolResults(results); err != nil {
		s.logger.Warn("live: send tool results", "error", err)
	}
}

// failTransport releases every resource after a connection failure and
// leaves the session resting in the error state until the next Start.
// s.done stays in place so Stop and Start can wait out the receive loop
// that is running this.
func (s *Session) failTransport(err error) {
	s.mu.Lock()
	// A Stop that began first, or already finished, owns the teardown.
	if s.state == StateClosing || s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	client, cancel := s.client, s.cancel
	s.client, s.cancel = nil, nil
	s.setStateLocked(StateError)
	s.mu.Unlock()

	s.logger.Error("live: connection failed", "error", err)
	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Close()
	}
	s.capture.Close()
	s.playback.Interrupt()
}

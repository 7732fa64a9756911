// Package converse orchestrates the voice conversation: it owns the session
// lifecycle, feeds tool calls to the dispatcher, keeps the turn transcript,
// and restarts the session with a fresh context snapshot when a handler
// changed the shape of that context.
package converse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/voxdesk/voxdesk/pkg/audio"
	"github.com/voxdesk/voxdesk/pkg/dispatch"
	"github.com/voxdesk/voxdesk/pkg/live"
	"github.com/voxdesk/voxdesk/pkg/organizer"
)

// Publisher receives UI-bound events. *feed.Hub implements it.
type Publisher interface {
	Transcript(role, text string)
	SessionState(state string)
}

// Turn is one completed exchange.
type Turn struct {
	User        string
	Assistant   string
	CompletedAt time.Time
}

// Orchestrator glues the session, the dispatcher and the organizer together.
type Orchestrator struct {
	org    *organizer.Organizer
	disp   *dispatch.Dispatcher
	pub    Publisher
	logger *slog.Logger

	session *live.Session

	mu sync.Mutex
	// active is the user's intent: true between a starting Toggle and a
	// stopping one. A restart only proceeds while it holds.
	active      bool
	userBuf     strings.Builder
	assistBuf   strings.Builder
	turns       []Turn
	restartBusy bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher attaches the UI event publisher.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator and the session it drives.
func New(org *organizer.Organizer, disp *dispatch.Dispatcher, cfg *live.Config,
	capture audio.Capture, playback *audio.Playback, opts ...Option) *Orchestrator {

	o := &Orchestrator{
		org:    org,
		disp:   disp,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	// Turn bookkeeping is built from transcript events, so every session
	// asks the endpoint for them.
	cfg.Transcription = true
	o.session = live.NewSession(cfg, capture, playback,
		live.WithToolHandler(o.handleToolCalls),
		live.WithOnTranscript(o.handleTranscript),
		live.WithOnTurnComplete(o.handleTurnComplete),
		live.WithOnStateChange(o.handleStateChange),
		live.WithLogger(o.logger),
	)
	return o
}

// Session exposes the underlying session for state queries.
func (o *Orchestrator) Session() *live.Session {
	return o.session
}

// Toggle starts the conversation when the session is idle or resting after
// a transport failure, and stops it otherwise.
func (o *Orchestrator) Toggle(ctx context.Context) error {
	o.mu.Lock()
	if st := o.session.State(); st == live.StateIdle || st == live.StateError {
		o.active = true
		o.mu.Unlock()
		return o.start(ctx, "")
	}
	o.active = false
	o.mu.Unlock()
	o.session.Stop()
	return nil
}

// StartSummarySession starts a session whose first turn asks the model to
// read a spoken summary of the given content. An active session is stopped
// first.
func (o *Orchestrator) StartSummarySession(ctx context.Context, content string) error {
	o.session.Stop()
	o.mu.Lock()
	o.active = true
	o.mu.Unlock()
	prompt := fmt.Sprintf("Give me a short spoken summary of the following, then help me act on it if I ask.\n\n%s", content)
	return o.start(ctx, prompt)
}

// Turns returns the completed exchanges so far.
func (o *Orchestrator) Turns() []Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Turn(nil), o.turns...)
}

func (o *Orchestrator) start(ctx context.Context, initialText string) error {
	req := live.StartRequest{
		SystemInstruction: buildSystemInstruction(o.org.Snapshot(), time.Now()),
		Tools:             o.declarations(),
		InitialText:       initialText,
	}
	return o.session.Start(ctx, req)
}

// declarations converts the dispatcher's catalogue into the wire form.
func (o *Orchestrator) declarations() []*genai.FunctionDeclaration {
	tools := o.disp.Tools()
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  live.ConvSchema(t.Argument),
		})
	}
	return decls
}

func (o *Orchestrator) handleToolCalls(ctx context.Context, calls []live.FunctionCall) []live.ToolResult {
	in := make([]dispatch.ToolCall, 0, len(calls))
	for _, c := range calls {
		in = append(in, dispatch.ToolCall{ID: c.ID, Name: c.Name, Args: c.Args})
	}
	out := o.disp.Dispatch(ctx, in)
	results := make([]live.ToolResult, 0, len(out))
	for _, r := range out {
		results = append(results, live.ToolResult{ID: r.ID, Name: r.Name, Output: r.Response})
	}
	return results
}

func (o *Orchestrator) handleTranscript(event live.EventType, text string) {
	o.mu.Lock()
	switch event {
	case live.EventInputTranscript:
		o.userBuf.WriteString(text)
	case live.EventOutputTranscript:
		o.assistBuf.WriteString(text)
	}
	o.mu.Unlock()

	if o.pub != nil {
		role := "assistant"
		if event == live.EventInputTranscript {
			role = "user"
		}
		o.pub.Transcript(role, text)
	}
}

func (o *Orchestrator) handleTurnComplete() {
	o.mu.Lock()
	if o.userBuf.Len() > 0 || o.assistBuf.Len() > 0 {
		o.turns = append(o.turns, Turn{
			User:        o.userBuf.String(),
			Assistant:   o.assistBuf.String(),
			CompletedAt: time.Now(),
		})
		o.userBuf.Reset()
		o.assistBuf.Reset()
	}
	o.mu.Unlock()

	if o.disp.ConsumeRestart() {
		go o.restart()
	}
}

// restart tears the session fully down, then starts a new one whose system
// instruction embeds a fresh context snapshot. The microphone is released
// before the new session acquires it.
func (o *Orchestrator) restart() {
	o.mu.Lock()
	if o.restartBusy || !o.active {
		o.mu.Unlock()
		return
	}
	o.restartBusy = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.restartBusy = false
		o.mu.Unlock()
	}()

	o.logger.Info("converse: restarting session with fresh context")
	o.session.Stop()

	o.mu.Lock()
	active := o.active
	o.mu.Unlock()
	if !active {
		// The user stopped the conversation while we were tearing down.
		return
	}
	if err := o.start(context.Background(), ""); err != nil {
		o.logger.Error("converse: restart failed", "error", err)
	}
}

func (o *Orchestrator) handleStateChange(st live.SessionState) {
	if o.pub != nil {
		o.pub.SessionState(st.String())
	}
}

// buildSystemInstruction renders the organizer snapshot into the session
// system instruction. Regenerated on every (re)start.
func buildSystemInstruction(snap organizer.Snapshot, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("You are a hands-free voice assistant for a personal organizer. ")
	sb.WriteString("Answer briefly and always use the provided tools to read or change the user's data; never invent items. ")
	sb.WriteString("When a tool reports a possible duplicate, ask the user and then call confirm_duplicate or cancel_duplicate.\n\n")

	fmt.Fprintf(&sb, "Today is %s.\n", now.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&sb, "The user currently has %d tasks, %d shopping items, %d notes and %d contacts.\n",
		snap.TodoCount, snap.ShoppingCount, snap.NoteCount, snap.ContactCount)
	if len(snap.CustomLists) > 0 {
		fmt.Fprintf(&sb, "Custom lists: %s.\n", strings.Join(snap.CustomLists, ", "))
	}
	if len(snap.Projects) > 0 {
		fmt.Fprintf(&sb, "Projects: %s.\n", strings.Join(snap.Projects, ", "))
	}
	return sb.String()
}

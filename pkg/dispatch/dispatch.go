// Package dispatch maps tool calls from the inference endpoint onto the
// organizer and the external collaborators, and produces exactly one
// speakable response string per call.
//
// Handlers run sequentially in arrival order within a batch: later calls may
// depend on earlier calls' mutations ("create a list" then "add an item to
// it" arrive together). The dispatcher never talks to the transport; it is a
// pure function of (call, live state) with side effects confined to the
// organizer mutation API and the collaborator interfaces.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/voxdesk/voxdesk/pkg/extern"
	"github.com/voxdesk/voxdesk/pkg/organizer"
)

// Spoken fallback strings. Every failure path still produces a response so
// the endpoint's turn is never starved.
const (
	apologyGeneric        = "Sorry, something went wrong while doing that."
	apologyAuthExpired    = "Sorry, the connection to that account has expired. Please sign in again from the app."
	apologyNotImplemented = "Sorry, I can't do that yet."
)

// duplicateThreshold is the normalized distance below which a new item is
// treated as a near-duplicate of an existing one.
const duplicateThreshold = 0.3

// ToolCall is one function-call request received from the endpoint.
type ToolCall struct {
	ID   string
	Name string
	// Args is the raw JSON argument object.
	Args string
}

// FunctionResult answers one ToolCall. Exactly one is produced per received
// call, whatever the handler did.
type FunctionResult struct {
	ID       string
	Name     string
	Response string
}

// ItemType names the slot a pending duplicate belongs to.
type ItemType string

const (
	ItemTask     ItemType = "task"
	ItemShopping ItemType = "shopping_item"
	ItemNote     ItemType = "note"
	ItemListItem ItemType = "list_item"
)

// PendingDuplicate is a deferred creation awaiting explicit confirmation.
// At most one exists at a time; a second creation request while one is set
// is rejected until the first is confirmed or cancelled.
type PendingDuplicate struct {
	ItemType ItemType
	Content  string
	// ListID is set for list items (the target custom list).
	ListID string
	// Quantity carries the shopping quantity through confirmation.
	Quantity string
	// Priority carries the requested task priority through confirmation.
	Priority string
	// Title carries the note title through confirmation.
	Title string
}

// Tool describes one registered operation for the session tool schema.
type Tool struct {
	Name        string
	Description string
	Argument    *jsonschema.Schema
}

type handlerFunc func(ctx context.Context, rawArgs string) (string, error)

// Dispatcher owns the operation registry and the per-turn flags (pending
// duplicate, restart request).
type Dispatcher struct {
	org      *organizer.Organizer
	calendar extern.Calendar
	mail     extern.Mail
	contacts extern.Contacts
	weather  extern.Weather

	onHighlight func(itemID string)

	mu      sync.Mutex
	pending *PendingDuplicate
	restart bool

	handlers map[string]handlerFunc
	tools    []*Tool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCalendar attaches the calendar collaborator.
func WithCalendar(c extern.Calendar) Option {
	return func(d *Dispatcher) { d.calendar = c }
}

// WithMail attaches the mail collaborator.
func WithMail(m extern.Mail) Option {
	return func(d *Dispatcher) { d.mail = m }
}

// WithContacts attaches the contacts collaborator.
func WithContacts(c extern.Contacts) Option {
	return func(d *Dispatcher) { d.contacts = c }
}

// WithWeather attaches the weather collaborator.
func WithWeather(w extern.Weather) Option {
	return func(d *Dispatcher) { d.weather = w }
}

// WithOnHighlight registers a callback fired with the ID of every item a
// handler created or acted on, so the UI layer can acknowledge it.
func WithOnHighlight(fn func(itemID string)) Option {
	return func(d *Dispatcher) { d.onHighlight = fn }
}

// New creates a Dispatcher over the given organizer and registers the full
// operation catalogue.
func New(org *organizer.Organizer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		org:      org,
		handlers: make(map[string]handlerFunc),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.registerTaskHandlers()
	d.registerShoppingHandlers()
	d.registerNoteHandlers()
	d.registerListHandlers()
	d.registerExternalHandlers()
	d.registerMetaHandlers()
	return d
}

// register adds one typed operation. The argument schema is derived from the
// struct type; malformed argument JSON is passed through jsonrepair before
// the final unmarshal attempt.
func register[T any](d *Dispatcher, name, description string, fn func(ctx context.Context, arg T) (string, error)) {
	schema, err := jsonschema.For[T](&jsonschema.ForOptions{})
	if err != nil {
		panic(fmt.Sprintf("dispatch: schema for %s: %v", name, err))
	}
	if _, exists := d.handlers[name]; exists {
		panic(fmt.Sprintf("dispatch: duplicate operation %s", name))
	}
	d.handlers[name] = func(ctx context.Context, rawArgs string) (string, error) {
		var v T
		if rawArgs == "" {
			rawArgs = "{}"
		}
		if err := json.Unmarshal([]byte(rawArgs), &v); err != nil {
			repaired, rerr := jsonrepair.JSONRepair(rawArgs)
			if rerr != nil {
				return "", fmt.Errorf("%s: bad arguments %q: %w", name, rawArgs, err)
			}
			if err := json.Unmarshal([]byte(repaired), &v); err != nil {
				return "", fmt.Errorf("%s: bad arguments %q: %w", name, rawArgs, err)
			}
		}
		return fn(ctx, v)
	}
	d.tools = append(d.tools, &Tool{Name: name, Description: description, Argument: schema})
}

// Tools returns the registered operations in registration order, for the
// session tool schema.
func (d *Dispatcher) Tools() []*Tool {
	return d.tools
}

// Dispatch executes one batch of tool calls sequentially in arrival order
// and returns one FunctionResult per call, in the same order.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []ToolCall) []FunctionResult {
	results := make([]FunctionResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, FunctionResult{
			ID:       call.ID,
			Name:     call.Name,
			Response: d.dispatchOne(ctx, call),
		})
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, call ToolCall) (response string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch: handler panic", "op", call.Name, "panic", r)
			response = apologyGeneric
		}
	}()

	h, ok := d.handlers[call.Name]
	if !ok {
		slog.Warn("dispatch: unknown operation", "op", call.Name)
		return apologyNotImplemented
	}

	resp, err := h(ctx, call.Args)
	if err != nil {
		if errors.Is(err, extern.ErrAuthorizationExpired) {
			slog.Warn("dispatch: authorization expired", "op", call.Name)
			return apologyAuthExpired
		}
		slog.Error("dispatch: handler error", "op", call.Name, "error", err)
		return apologyGeneric
	}
	return resp
}

// highlight reports an acted-on item to the UI layer.
func (d *Dispatcher) highlight(itemID string) {
	if itemID == "" || d.onHighlight == nil {
		return
	}
	d.onHighlight(itemID)
}

// requestRestart raises the restart flag: the handler changed the shape of
// the context embedded in the session system prompt.
func (d *Dispatcher) requestRestart() {
	d.mu.Lock()
	d.restart = true
	d.mu.Unlock()
}

// ConsumeRestart returns the restart flag and clears it. Called by the
// orchestrator exactly once, at the end of the turn.
func (d *Dispatcher) ConsumeRestart() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.restart
	d.restart = false
	return v
}

// Pending returns the pending duplicate, or nil.
func (d *Dispatcher) Pending() *PendingDuplicate {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return nil
	}
	p := *d.pending
	return &p
}

// setPending records a pending duplicate. Returns false when another one is
// already set: the new creation is rejected until the first is resolved.
func (d *Dispatcher) setPending(p *PendingDuplicate) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		return false
	}
	d.pending = p
	return true
}

// takePending removes and returns the pending duplicate, or nil.
func (d *Dispatcher) takePending() *PendingDuplicate {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.pending
	d.pending = nil
	return p
}

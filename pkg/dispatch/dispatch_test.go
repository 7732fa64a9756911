package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/voxdesk/voxdesk/pkg/extern"
	"github.com/voxdesk/voxdesk/pkg/organizer"
)

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *organizer.Organizer) {
	t.Helper()
	org := organizer.New()
	return New(org, opts...), org
}

func call(name, args string) ToolCall {
	return ToolCall{ID: "call-" + name, Name: name, Args: args}
}

func TestDispatchOneResultPerCall(t *testing.T) {
	d, _ := newTestDispatcher(t)

	calls := []ToolCall{
		call("create_task", `{"task":"Buy milk"}`),
		call("no_such_operation", `{}`),
		call("create_task", `{"task":"Walk the dog"}`),
	}
	results := d.Dispatch(context.Background(), calls)
	if len(results) != len(calls) {
		t.Fatalf("got %d results, want %d", len(results), len(calls))
	}
	for i, r := range results {
		if r.ID != calls[i].ID {
			t.Errorf("result %d: ID = %q, want %q", i, r.ID, calls[i].ID)
		}
		if r.Response == "" {
			t.Errorf("result %d: empty response", i)
		}
	}
	if results[1].Response != apologyNotImplemented {
		t.Errorf("unknown op response = %q, want %q", results[1].Response, apologyNotImplemented)
	}
}

func TestPanickingHandlerMidBatch(t *testing.T) {
	d, org := newTestDispatcher(t)
	register(d, "explode", "test handler that panics",
		func(context.Context, emptyArgs) (string, error) { panic("boom") })

	calls := []ToolCall{
		call("create_task", `{"task":"Buy milk"}`),
		call("explode", `{}`),
		call("create_task", `{"task":"Walk the dog"}`),
	}
	results := d.Dispatch(context.Background(), calls)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[1].ID != calls[1].ID || results[1].Response != apologyGeneric {
		t.Errorf("panicking call result = %+v", results[1])
	}
	// The panic does not abort the rest of the batch.
	if len(org.Todos()) != 2 {
		t.Errorf("got %d todos, want 2", len(org.Todos()))
	}
}

func TestDispatchRepairsMalformedArguments(t *testing.T) {
	d, org := newTestDispatcher(t)

	// Trailing comma and single quotes, as models sometimes emit.
	results := d.Dispatch(context.Background(), []ToolCall{
		call("create_task", `{'task': 'Buy milk',}`),
	})
	if got := results[0].Response; got == apologyGeneric {
		t.Fatalf("repairable arguments produced an apology: %q", got)
	}
	if len(org.Todos()) != 1 {
		t.Fatalf("got %d todos, want 1", len(org.Todos()))
	}
}

func TestDispatchSequentialBatch(t *testing.T) {
	d, org := newTestDispatcher(t)

	// The second call depends on the first within the same batch.
	results := d.Dispatch(context.Background(), []ToolCall{
		call("create_custom_list", `{"title":"Camping"}`),
		call("add_custom_list_item", `{"list_name":"Camping","item":"Tent"}`),
	})
	for i, r := range results {
		if strings.HasPrefix(r.Response, "Sorry") || strings.HasPrefix(r.Response, "I couldn't") {
			t.Fatalf("call %d failed: %q", i, r.Response)
		}
	}
	lists := org.CustomLists()
	if len(lists) != 1 || len(lists[0].Items) != 1 {
		t.Fatalf("list state after batch: %+v", lists)
	}
	if lists[0].Items[0].Text != "Tent" {
		t.Errorf("item text = %q, want Tent", lists[0].Items[0].Text)
	}
}

func TestDuplicateConfirmProtocol(t *testing.T) {
	d, org := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, []ToolCall{call("create_task", `{"task":"Buy milk"}`)})
	res := d.Dispatch(ctx, []ToolCall{call("create_task", `{"task":"buy milk","priority":"high"}`)})
	if !strings.Contains(res[0].Response, "already") {
		t.Fatalf("near-duplicate was not held back: %q", res[0].Response)
	}
	if d.Pending() == nil {
		t.Fatal("no pending duplicate recorded")
	}
	if len(org.Todos()) != 1 {
		t.Fatalf("got %d todos before confirmation, want 1", len(org.Todos()))
	}

	// A second creation is rejected while the first awaits confirmation.
	res = d.Dispatch(ctx, []ToolCall{call("create_task", `{"task":"buy milkk"}`)})
	if !strings.Contains(res[0].Response, "confirm or cancel") {
		t.Fatalf("second pending creation not rejected: %q", res[0].Response)
	}

	res = d.Dispatch(ctx, []ToolCall{call("confirm_duplicate", `{}`)})
	if strings.HasPrefix(res[0].Response, "Sorry") {
		t.Fatalf("confirmation failed: %q", res[0].Response)
	}
	if d.Pending() != nil {
		t.Error("pending duplicate not cleared after confirmation")
	}
	todos := org.Todos()
	if len(todos) != 2 {
		t.Fatalf("got %d todos after confirmation, want 2", len(todos))
	}
	if todos[1].Priority != organizer.PriorityHigh {
		t.Errorf("confirmed task priority = %v, want high", todos[1].Priority)
	}
}

func TestDuplicateCancelProtocol(t *testing.T) {
	d, org := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, []ToolCall{call("add_shopping_item", `{"item":"Eggs"}`)})
	d.Dispatch(ctx, []ToolCall{call("add_shopping_item", `{"item":"eggs","quantity":"12"}`)})
	if d.Pending() == nil {
		t.Fatal("no pending duplicate recorded")
	}

	res := d.Dispatch(ctx, []ToolCall{call("cancel_duplicate", `{}`)})
	if strings.HasPrefix(res[0].Response, "Sorry") {
		t.Fatalf("cancel failed: %q", res[0].Response)
	}
	if d.Pending() != nil {
		t.Error("pending duplicate not cleared after cancel")
	}
	if len(org.ShoppingItems()) != 1 {
		t.Fatalf("got %d shopping items after cancel, want 1", len(org.ShoppingItems()))
	}
}

func TestConfirmWithNothingPending(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res := d.Dispatch(context.Background(), []ToolCall{call("confirm_duplicate", `{}`)})
	if !strings.Contains(res[0].Response, "nothing") {
		t.Errorf("response = %q", res[0].Response)
	}
}

func TestRestartFlagConsumeOnce(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	if d.ConsumeRestart() {
		t.Fatal("restart flag set before any call")
	}
	d.Dispatch(ctx, []ToolCall{call("create_custom_list", `{"title":"Books"}`)})
	if !d.ConsumeRestart() {
		t.Fatal("create_custom_list did not raise the restart flag")
	}
	if d.ConsumeRestart() {
		t.Fatal("restart flag not cleared by consume")
	}

	d.Dispatch(ctx, []ToolCall{call("create_project", `{"name":"Renovation"}`)})
	if !d.ConsumeRestart() {
		t.Fatal("create_project did not raise the restart flag")
	}
}

type expiredMail struct{}

func (expiredMail) Search(context.Context, string) ([]extern.Email, error) {
	return nil, extern.ErrAuthorizationExpired
}

func (expiredMail) Send(context.Context, extern.OutgoingMail) error {
	return extern.ErrAuthorizationExpired
}

type failingMail struct{}

func (failingMail) Search(context.Context, string) ([]extern.Email, error) {
	return nil, errors.New("upstream 500")
}

func (failingMail) Send(context.Context, extern.OutgoingMail) error {
	return errors.New("upstream 500")
}

func TestAuthExpiredApologyDistinct(t *testing.T) {
	expired, _ := newTestDispatcher(t, WithMail(expiredMail{}))
	failing, _ := newTestDispatcher(t, WithMail(failingMail{}))
	ctx := context.Background()

	got := expired.Dispatch(ctx, []ToolCall{call("search_mail", `{"query":"invoices"}`)})
	if got[0].Response != apologyAuthExpired {
		t.Errorf("expired grant response = %q, want %q", got[0].Response, apologyAuthExpired)
	}
	got = failing.Dispatch(ctx, []ToolCall{call("search_mail", `{"query":"invoices"}`)})
	if got[0].Response != apologyGeneric {
		t.Errorf("generic failure response = %q, want %q", got[0].Response, apologyGeneric)
	}
}

func TestDisconnectedCollaborators(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	for _, name := range []string{"search_mail", "find_contact", "check_calendar_conflicts"} {
		res := d.Dispatch(ctx, []ToolCall{call(name, `{"query":"x","name":"x","start_time":"2026-09-01T10:00:00Z","end_time":"2026-09-01T11:00:00Z"}`)})
		if !strings.Contains(res[0].Response, "connected") {
			t.Errorf("%s without collaborator: %q", name, res[0].Response)
		}
	}
}

func TestFuzzyResolutionAcrossHandlers(t *testing.T) {
	d, org := newTestDispatcher(t)
	ctx := context.Background()

	org.AddTodo("Acheter du pain", organizer.PriorityMedium)
	res := d.Dispatch(ctx, []ToolCall{call("toggle_task", `{"task_name":"achete du pain"}`)})
	if strings.Contains(res[0].Response, "couldn't find") {
		t.Fatalf("fuzzy match failed: %q", res[0].Response)
	}
	if !org.Todos()[0].Done {
		t.Error("task not toggled")
	}

	res = d.Dispatch(ctx, []ToolCall{call("delete_task", `{"task_name":"completely unrelated"}`)})
	if !strings.Contains(res[0].Response, "couldn't find") {
		t.Fatalf("unrelated query matched: %q", res[0].Response)
	}
	if len(org.Todos()) != 1 {
		t.Error("unrelated delete removed a task")
	}
}

func TestHighlightCallback(t *testing.T) {
	var ids []string
	d, _ := newTestDispatcher(t, WithOnHighlight(func(id string) { ids = append(ids, id) }))

	d.Dispatch(context.Background(), []ToolCall{call("create_task", `{"task":"Buy milk"}`)})
	if len(ids) != 1 || ids[0] == "" {
		t.Fatalf("highlight ids = %v", ids)
	}
}

func TestUndoThroughDispatch(t *testing.T) {
	d, org := newTestDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, []ToolCall{call("create_task", `{"task":"Buy milk"}`)})
	res := d.Dispatch(ctx, []ToolCall{call("undo_last_action", `{}`)})
	if strings.HasPrefix(res[0].Response, "Sorry") {
		t.Fatalf("undo failed: %q", res[0].Response)
	}
	if len(org.Todos()) != 0 {
		t.Errorf("got %d todos after undo, want 0", len(org.Todos()))
	}

	res = d.Dispatch(ctx, []ToolCall{call("undo_last_action", `{}`)})
	if !strings.Contains(res[0].Response, "nothing to undo") {
		t.Errorf("double undo response = %q", res[0].Response)
	}
}

func TestToolsCatalogue(t *testing.T) {
	d, _ := newTestDispatcher(t)
	tools := d.Tools()
	if len(tools) < 25 {
		t.Fatalf("got %d tools, want the full catalogue", len(tools))
	}
	seen := make(map[string]bool)
	for _, tool := range tools {
		if tool.Argument == nil {
			t.Errorf("%s: nil argument schema", tool.Name)
		}
		if seen[tool.Name] {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		seen[tool.Name] = true
	}
	for _, want := range []string{"create_task", "confirm_duplicate", "get_weather", "create_custom_list"} {
		if !seen[want] {
			t.Errorf("catalogue missing %s", want)
		}
	}
}

type fakeCalendar struct {
	events []organizer.CalendarEvent
}

func (c *fakeCalendar) Events(_ context.Context, from, to time.Time) ([]organizer.CalendarEvent, error) {
	var out []organizer.CalendarEvent
	for _, ev := range c.events {
		if ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (c *fakeCalendar) CreateEvent(_ context.Context, summary string, start, end time.Time) (string, error) {
	ev := organizer.CalendarEvent{ID: "ev-1", Summary: summary, Start: start, End: end}
	c.events = append(c.events, ev)
	return ev.ID, nil
}

func TestCalendarConflicts(t *testing.T) {
	cal := &fakeCalendar{events: []organizer.CalendarEvent{{
		ID:      "ev-standup",
		Summary: "Standup",
		Start:   time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
	}}}
	d, _ := newTestDispatcher(t, WithCalendar(cal))
	ctx := context.Background()

	res := d.Dispatch(ctx, []ToolCall{call("check_calendar_conflicts",
		`{"start_time":"2026-09-01T10:00:00Z","end_time":"2026-09-01T11:00:00Z"}`)})
	if !strings.Contains(res[0].Response, "Standup") {
		t.Errorf("overlap not reported: %q", res[0].Response)
	}

	res = d.Dispatch(ctx, []ToolCall{call("check_calendar_conflicts",
		`{"start_time":"2026-09-01T14:00:00Z","end_time":"2026-09-01T15:00:00Z"}`)})
	if !strings.Contains(res[0].Response, "free") {
		t.Errorf("free slot not reported: %q", res[0].Response)
	}
}

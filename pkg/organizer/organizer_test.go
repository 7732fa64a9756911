package organizer

import (
	"testing"
	"time"
)

func TestAddToggleDeleteTodo(t *testing.T) {
	o := New()

	res := o.AddTodo("Acheter du pain", PriorityMedium)
	if res == nil || res.NewID == "" {
		t.Fatalf("AddTodo returned %v", res)
	}
	if len(o.Todos()) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(o.Todos()))
	}

	tg := o.ToggleTodo(res.NewID)
	if tg == nil {
		t.Fatal("ToggleTodo returned nil")
	}
	if !o.Todos()[0].Done {
		t.Error("todo should be done after toggle")
	}

	if del := o.DeleteTodo(res.NewID); del == nil {
		t.Fatal("DeleteTodo returned nil")
	}
	if len(o.Todos()) != 0 {
		t.Errorf("expected empty todos, got %d", len(o.Todos()))
	}
}

func TestMutationOnUnknownIDReturnsNil(t *testing.T) {
	o := New()
	if res := o.ToggleTodo("nope"); res != nil {
		t.Errorf("ToggleTodo on unknown id = %v, want nil", res)
	}
	if res := o.DeleteNote("nope"); res != nil {
		t.Errorf("DeleteNote on unknown id = %v, want nil", res)
	}
	if res := o.AddCustomListItem("nope", "x"); res != nil {
		t.Errorf("AddCustomListItem on unknown list = %v, want nil", res)
	}
}

func TestUndoRestoresDeletedTodoInPlace(t *testing.T) {
	o := New()
	a := o.AddTodo("first", PriorityLow)
	o.AddTodo("second", PriorityLow)

	o.DeleteTodo(a.NewID)
	res := o.Undo()
	if res == nil || res.Message == "" {
		t.Fatalf("Undo returned %v", res)
	}
	todos := o.Todos()
	if len(todos) != 2 || todos[0].Text != "first" {
		t.Errorf("undo did not restore order: %+v", todos)
	}

	// The journal is one level deep.
	res = o.Undo()
	if res.Message != "There is nothing to undo." {
		t.Errorf("second Undo = %q", res.Message)
	}
}

func TestSortTodosByPriority(t *testing.T) {
	o := New()
	o.AddTodo("low", PriorityLow)
	o.AddTodo("high", PriorityHigh)
	o.AddTodo("medium", PriorityMedium)

	if res := o.SortTodos("priority"); res == nil {
		t.Fatal("SortTodos returned nil")
	}
	got := o.Todos()
	want := []string{"high", "medium", "low"}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("todos[%d] = %q, want %q", i, got[i].Text, w)
		}
	}

	if res := o.SortTodos("bogus"); res != nil {
		t.Errorf("SortTodos(bogus) = %v, want nil", res)
	}
}

func TestCustomListLifecycle(t *testing.T) {
	o := New()
	l := o.CreateCustomList("Cadeaux")
	it := o.AddCustomListItem(l.NewID, "Livre pour Anna")
	if it == nil || it.NewID == "" {
		t.Fatalf("AddCustomListItem = %v", it)
	}
	if res := o.ToggleCustomListItem(l.NewID, it.NewID); res == nil {
		t.Fatal("ToggleCustomListItem returned nil")
	}
	if !o.CustomLists()[0].Items[0].Checked {
		t.Error("item should be checked")
	}
	if res := o.DeleteCustomListItem(l.NewID, it.NewID); res == nil {
		t.Fatal("DeleteCustomListItem returned nil")
	}
	if n := len(o.CustomLists()[0].Items); n != 0 {
		t.Errorf("expected empty list, got %d items", n)
	}
}

func TestAssignTodoToProject(t *testing.T) {
	o := New()
	p := o.CreateProject("Renovation")
	td := o.AddTodo("buy paint", PriorityMedium)

	res := o.AssignTodoToProject(td.NewID, p.NewID)
	if res == nil {
		t.Fatal("AssignTodoToProject returned nil")
	}
	if o.Todos()[0].ProjectID != p.NewID {
		t.Error("project link not set")
	}

	if res := o.AssignTodoToProject(td.NewID, "missing"); res != nil {
		t.Errorf("assign to unknown project = %v, want nil", res)
	}
}

func TestSnapshotCountsAndNames(t *testing.T) {
	o := New(WithNowFunc(func() time.Time { return time.Unix(1000, 0) }))
	o.AddTodo("a", PriorityLow)
	o.AddShoppingItem("milk", "")
	o.CreateCustomList("Books")
	o.CreateProject("Home")

	s := o.Snapshot()
	if s.TodoCount != 1 || s.ShoppingCount != 1 {
		t.Errorf("counts = %+v", s)
	}
	if len(s.CustomLists) != 1 || s.CustomLists[0] != "Books" {
		t.Errorf("custom lists = %v", s.CustomLists)
	}
	if len(s.Projects) != 1 || s.Projects[0] != "Home" {
		t.Errorf("projects = %v", s.Projects)
	}
}

func TestFilterState(t *testing.T) {
	o := New()
	o.SetFilter("todos", "high priority")
	f := o.ActiveFilter()
	if f == nil || f.List != "todos" || f.Criteria != "high priority" {
		t.Fatalf("filter = %+v", f)
	}
	o.ClearFilter()
	if o.ActiveFilter() != nil {
		t.Error("filter should be cleared")
	}
}

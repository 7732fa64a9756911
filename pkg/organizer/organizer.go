package organizer

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Organizer owns all collections and the mutation API. Safe for concurrent
// use; dispatch batches additionally serialize at the dispatcher level so
// later calls in a batch observe earlier mutations.
type Organizer struct {
	mu sync.Mutex

	todos          []Todo
	shopping       []ShoppingItem
	notes          []Note
	customLists    []CustomList
	projects       []Project
	contacts       []Contact
	calendarEvents []CalendarEvent

	filter *Filter

	// lastUndo reverses the most recent mutation. One level deep.
	lastUndo func() string

	store *Store
	now   func() time.Time
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithStore attaches a persistent store. State is loaded on New and saved
// after every mutation.
func WithStore(s *Store) Option {
	return func(o *Organizer) { o.store = s }
}

// WithNowFunc overrides the time source, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(o *Organizer) { o.now = now }
}

// New creates an Organizer. If a store is attached, previously persisted
// state is loaded; a load failure starts empty and is logged, not fatal.
func New(opts ...Option) *Organizer {
	o := &Organizer{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.store != nil {
		st, err := o.store.Load()
		if err != nil {
			slog.Warn("organizer: load state", "error", err)
		} else if st != nil {
			o.todos = st.Todos
			o.shopping = st.Shopping
			o.notes = st.Notes
			o.customLists = st.CustomLists
			o.projects = st.Projects
			o.contacts = st.Contacts
			o.calendarEvents = st.CalendarEvents
		}
	}
	return o
}

func (o *Organizer) persistLocked() {
	if o.store == nil {
		return
	}
	st := &State{
		Todos:          o.todos,
		Shopping:       o.shopping,
		Notes:          o.notes,
		CustomLists:    o.customLists,
		Projects:       o.projects,
		Contacts:       o.contacts,
		CalendarEvents: o.calendarEvents,
	}
	if err := o.store.Save(st); err != nil {
		slog.Warn("organizer: save state", "error", err)
	}
}

// ---- tasks ----

// AddTodo appends a new task.
func (o *Organizer) AddTodo(text string, prio Priority) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := Todo{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Priority:  prio,
		CreatedAt: o.now(),
	}
	o.todos = append(o.todos, t)
	o.lastUndo = func() string {
		o.deleteTodoLocked(t.ID)
		return fmt.Sprintf("Removed the task %q again.", t.Text)
	}
	o.persistLocked()
	return &MutationResult{NewID: t.ID, Message: fmt.Sprintf("Added the task %q.", t.Text)}
}

// ToggleTodo flips the done flag of the task with the given ID.
func (o *Organizer) ToggleTodo(id string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.todos {
		if o.todos[i].ID != id {
			continue
		}
		o.todos[i].Done = !o.todos[i].Done
		t := o.todos[i]
		o.lastUndo = func() string {
			o.toggleTodoLocked(t.ID)
			return fmt.Sprintf("Reverted the status of %q.", t.Text)
		}
		o.persistLocked()
		state := "open"
		if t.Done {
			state = "done"
		}
		return &MutationResult{NewID: t.ID, Message: fmt.Sprintf("Marked %q as %s.", t.Text, state)}
	}
	return nil
}

// EditTodo replaces the text and/or priority of a task. Empty newText keeps
// the current text; empty prio keeps the current priority.
func (o *Organizer) EditTodo(id, newText string, prio Priority) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.todos {
		if o.todos[i].ID != id {
			continue
		}
		prev := o.todos[i]
		if s := strings.TrimSpace(newText); s != "" {
			o.todos[i].Text = s
		}
		if prio != "" {
			o.todos[i].Priority = prio
		}
		o.lastUndo = func() string {
			o.replaceTodoLocked(prev)
			return fmt.Sprintf("Restored the task %q.", prev.Text)
		}
		o.persistLocked()
		return &MutationResult{NewID: id, Message: fmt.Sprintf("Updated the task to %q.", o.todos[i].Text)}
	}
	return nil
}

// DeleteTodo removes a task.
func (o *Organizer) DeleteTodo(id string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.todos {
		if o.todos[i].ID != id {
			continue
		}
		prev := o.todos[i]
		idx := i
		o.todos = append(o.todos[:i], o.todos[i+1:]...)
		o.lastUndo = func() string {
			o.insertTodoLocked(prev, idx)
			return fmt.Sprintf("Restored the task %q.", prev.Text)
		}
		o.persistLocked()
		return &MutationResult{Message: fmt.Sprintf("Deleted the task %q.", prev.Text)}
	}
	return nil
}

// SetTodoDueDate sets or replaces a task's due date.
func (o *Organizer) SetTodoDueDate(id string, due time.Time) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.todos {
		if o.todos[i].ID != id {
			continue
		}
		prev := o.todos[i]
		d := due
		o.todos[i].DueDate = &d
		o.lastUndo = func() string {
			o.replaceTodoLocked(prev)
			return fmt.Sprintf("Removed the due date from %q again.", prev.Text)
		}
		o.persistLocked()
		return &MutationResult{NewID: id, Message: fmt.Sprintf("Set the due date of %q to %s.", prev.Text, due.Format("January 2"))}
	}
	return nil
}

// SortTodos reorders tasks by "priority", "due_date", "created" or
// "alphabetical".
func (o *Organizer) SortTodos(by string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := append([]Todo(nil), o.todos...)
	switch by {
	case "priority":
		rank := map[Priority]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
		sort.SliceStable(o.todos, func(i, j int) bool {
			return rank[o.todos[i].Priority] < rank[o.todos[j].Priority]
		})
	case "due_date":
		sort.SliceStable(o.todos, func(i, j int) bool {
			a, b := o.todos[i].DueDate, o.todos[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	case "alphabetical":
		sort.SliceStable(o.todos, func(i, j int) bool {
			return strings.ToLower(o.todos[i].Text) < strings.ToLower(o.todos[j].Text)
		})
	case "created", "":
		sort.SliceStable(o.todos, func(i, j int) bool {
			return o.todos[i].CreatedAt.Before(o.todos[j].CreatedAt)
		})
	default:
		return nil
	}
	o.lastUndo = func() string {
		o.todos = prev
		return "Restored the previous task order."
	}
	o.persistLocked()
	return &MutationResult{Message: fmt.Sprintf("Sorted your tasks by %s.", strings.ReplaceAll(by, "_", " "))}
}

func (o *Organizer) deleteTodoLocked(id string) {
	for i := range o.todos {
		if o.todos[i].ID == id {
			o.todos = append(o.todos[:i], o.todos[i+1:]...)
			return
		}
	}
}

func (o *Organizer) toggleTodoLocked(id string) {
	for i := range o.todos {
		if o.todos[i].ID == id {
			o.todos[i].Done = !o.todos[i].Done
			return
		}
	}
}

func (o *Organizer) replaceTodoLocked(t Todo) {
	for i := range o.todos {
		if o.todos[i].ID == t.ID {
			o.todos[i] = t
			return
		}
	}
}

func (o *Organizer) insertTodoLocked(t Todo, idx int) {
	if idx < 0 || idx > len(o.todos) {
		idx = len(o.todos)
	}
	o.todos = append(o.todos[:idx], append([]Todo{t}, o.todos[idx:]...)...)
}

// ---- shopping ----

// AddShoppingItem appends a shopping list entry.
func (o *Organizer) AddShoppingItem(text, quantity string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	it := ShoppingItem{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Quantity:  strings.TrimSpace(quantity),
		CreatedAt: o.now(),
	}
	o.shopping = append(o.shopping, it)
	o.lastUndo = func() string {
		o.deleteShoppingLocked(it.ID)
		return fmt.Sprintf("Removed %q from the shopping list again.", it.Text)
	}
	o.persistLocked()
	return &MutationResult{NewID: it.ID, Message: fmt.Sprintf("Added %q to the shopping list.", it.Text)}
}

// ToggleShoppingItem flips the checked flag.
func (o *Organizer) ToggleShoppingItem(id string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.shopping {
		if o.shopping[i].ID != id {
			continue
		}
		o.shopping[i].Checked = !o.shopping[i].Checked
		it := o.shopping[i]
		o.lastUndo = func() string {
			o.toggleShoppingLocked(it.ID)
			return fmt.Sprintf("Reverted the status of %q.", it.Text)
		}
		o.persistLocked()
		state := "unchecked"
		if it.Checked {
			state = "checked"
		}
		return &MutationResult{NewID: it.ID, Message: fmt.Sprintf("Marked %q as %s.", it.Text, state)}
	}
	return nil
}

// EditShoppingItem replaces the text of an entry.
func (o *Organizer) EditShoppingItem(id, newText string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.shopping {
		if o.shopping[i].ID != id {
			continue
		}
		prev := o.shopping[i]
		if s := strings.TrimSpace(newText); s != "" {
			o.shopping[i].Text = s
		}
		o.lastUndo = func() string {
			o.replaceShoppingLocked(prev)
			return fmt.Sprintf("Restored %q.", prev.Text)
		}
		o.persistLocked()
		return &MutationResult{NewID: id, Message: fmt.Sprintf("Changed the item to %q.", o.shopping[i].Text)}
	}
	return nil
}

// DeleteShoppingItem removes an entry.
func (o *Organizer) DeleteShoppingItem(id string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.shopping {
		if o.shopping[i].ID != id {
			continue
		}
		prev := o.shopping[i]
		idx := i
		o.shopping = append(o.shopping[:i], o.shopping[i+1:]...)
		o.lastUndo = func() string {
			o.shopping = append(o.shopping[:idx], append([]ShoppingItem{prev}, o.shopping[idx:]...)...)
			return fmt.Sprintf("Put %q back on the shopping list.", prev.Text)
		}
		o.persistLocked()
		return &MutationResult{Message: fmt.Sprintf("Removed %q from the shopping list.", prev.Text)}
	}
	return nil
}

func (o *Organizer) deleteShoppingLocked(id string) {
	for i := range o.shopping {
		if o.shopping[i].ID == id {
			o.shopping = append(o.shopping[:i], o.shopping[i+1:]...)
			return
		}
	}
}

func (o *Organizer) toggleShoppingLocked(id string) {
	for i := range o.shopping {
		if o.shopping[i].ID == id {
			o.shopping[i].Checked = !o.shopping[i].Checked
			return
		}
	}
}

func (o *Organizer) replaceShoppingLocked(it ShoppingItem) {
	for i := range o.shopping {
		if o.shopping[i].ID == it.ID {
			o.shopping[i] = it
			return
		}
	}
}

// ---- notes ----

// AddNote creates a note. An empty title derives one from the first words of
// the content.
func (o *Organizer) AddNote(title, content string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		title = deriveTitle(content)
	}
	n := Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: o.now(),
		UpdatedAt: o.now(),
	}
	o.notes = append(o.notes, n)
	o.lastUndo = func() string {
		o.deleteNoteLocked(n.ID)
		return fmt.Sprintf("Removed the note %q again.", n.Title)
	}
	o.persistLocked()
	return &MutationResult{NewID: n.ID, Message: fmt.Sprintf("Saved the note %q.", n.Title)}
}

// EditNote replaces the content of a note.
func (o *Organizer) EditNote(id, content string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.notes {
		if o.notes[i].ID != id {
			continue
		}
		prev := o.notes[i]
		o.notes[i].Content = strings.TrimSpace(content)
		o.notes[i].UpdatedAt = o.now()
		o.lastUndo = func() string {
			o.replaceNoteLocked(prev)
			return fmt.Sprintf("Restored the previous content of %q.", prev.Title)
		}
		o.persistLocked()
		return &MutationResult{NewID: id, Message: fmt.Sprintf("Updated the note %q.", o.notes[i].Title)}
	}
	return nil
}

// DeleteNote removes a note.
func (o *Organizer) DeleteNote(id string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.notes {
		if o.notes[i].ID != id {
			continue
		}
		prev := o.notes[i]
		idx := i
		o.notes = append(o.notes[:i], o.notes[i+1:]...)
		o.lastUndo = func() string {
			o.notes = append(o.notes[:idx], append([]Note{prev}, o.notes[idx:]...)...)
			return fmt.Sprintf("Restored the note %q.", prev.Title)
		}
		o.persistLocked()
		return &MutationResult{Message: fmt.Sprintf("Deleted the note %q.", prev.Title)}
	}
	return nil
}

func (o *Organizer) deleteNoteLocked(id string) {
	for i := range o.notes {
		if o.notes[i].ID == id {
			o.notes = append(o.notes[:i], o.notes[i+1:]...)
			return
		}
	}
}

func (o *Organizer) replaceNoteLocked(n Note) {
	for i := range o.notes {
		if o.notes[i].ID == n.ID {
			o.notes[i] = n
			return
		}
	}
}

func deriveTitle(content string) string {
	words := strings.Fields(content)
	if len(words) > 5 {
		words = words[:5]
	}
	t := strings.Join(words, " ")
	if t == "" {
		t = "Untitled note"
	}
	return t
}

// ---- custom lists ----

// CreateCustomList creates a new named list.
func (o *Organizer) CreateCustomList(title string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	l := CustomList{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		CreatedAt: o.now(),
	}
	o.customLists = append(o.customLists, l)
	o.lastUndo = func() string {
		o.deleteCustomListLocked(l.ID)
		return fmt.Sprintf("Removed the list %q again.", l.Title)
	}
	o.persistLocked()
	return &MutationResult{NewID: l.ID, Message: fmt.Sprintf("Created the list %q.", l.Title)}
}

// AddCustomListItem appends an item to a named list.
func (o *Organizer) AddCustomListItem(listID, text string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.customLists {
		if o.customLists[i].ID != listID {
			continue
		}
		it := CustomListItem{ID: uuid.NewString(), Text: strings.TrimSpace(text)}
		o.customLists[i].Items = append(o.customLists[i].Items, it)
		title := o.customLists[i].Title
		o.lastUndo = func() string {
			o.deleteCustomListItemLocked(listID, it.ID)
			return fmt.Sprintf("Removed %q from %q again.", it.Text, title)
		}
		o.persistLocked()
		return &MutationResult{NewID: it.ID, Message: fmt.Sprintf("Added %q to %q.", it.Text, title)}
	}
	return nil
}

// ToggleCustomListItem flips the checked flag of a list item.
func (o *Organizer) ToggleCustomListItem(listID, itemID string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.customLists {
		if o.customLists[i].ID != listID {
			continue
		}
		for j := range o.customLists[i].Items {
			if o.customLists[i].Items[j].ID != itemID {
				continue
			}
			o.customLists[i].Items[j].Checked = !o.customLists[i].Items[j].Checked
			it := o.customLists[i].Items[j]
			o.lastUndo = func() string {
				o.toggleCustomListItemLocked(listID, itemID)
				return fmt.Sprintf("Reverted the status of %q.", it.Text)
			}
			o.persistLocked()
			state := "unchecked"
			if it.Checked {
				state = "checked"
			}
			return &MutationResult{NewID: it.ID, Message: fmt.Sprintf("Marked %q as %s.", it.Text, state)}
		}
	}
	return nil
}

// DeleteCustomListItem removes an item from a list.
func (o *Organizer) DeleteCustomListItem(listID, itemID string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.customLists {
		if o.customLists[i].ID != listID {
			continue
		}
		for j := range o.customLists[i].Items {
			if o.customLists[i].Items[j].ID != itemID {
				continue
			}
			prev := o.customLists[i].Items[j]
			idx := j
			li := i
			o.customLists[i].Items = append(o.customLists[i].Items[:j], o.customLists[i].Items[j+1:]...)
			o.lastUndo = func() string {
				items := o.customLists[li].Items
				o.customLists[li].Items = append(items[:idx], append([]CustomListItem{prev}, items[idx:]...)...)
				return fmt.Sprintf("Restored %q.", prev.Text)
			}
			o.persistLocked()
			return &MutationResult{Message: fmt.Sprintf("Removed %q from %q.", prev.Text, o.customLists[i].Title)}
		}
	}
	return nil
}

func (o *Organizer) deleteCustomListLocked(id string) {
	for i := range o.customLists {
		if o.customLists[i].ID == id {
			o.customLists = append(o.customLists[:i], o.customLists[i+1:]...)
			return
		}
	}
}

func (o *Organizer) deleteCustomListItemLocked(listID, itemID string) {
	for i := range o.customLists {
		if o.customLists[i].ID != listID {
			continue
		}
		for j := range o.customLists[i].Items {
			if o.customLists[i].Items[j].ID == itemID {
				o.customLists[i].Items = append(o.customLists[i].Items[:j], o.customLists[i].Items[j+1:]...)
				return
			}
		}
	}
}

func (o *Organizer) toggleCustomListItemLocked(listID, itemID string) {
	for i := range o.customLists {
		if o.customLists[i].ID != listID {
			continue
		}
		for j := range o.customLists[i].Items {
			if o.customLists[i].Items[j].ID == itemID {
				o.customLists[i].Items[j].Checked = !o.customLists[i].Items[j].Checked
				return
			}
		}
	}
}

// ---- projects ----

// CreateProject creates a project.
func (o *Organizer) CreateProject(name string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := Project{ID: uuid.NewString(), Name: strings.TrimSpace(name), CreatedAt: o.now()}
	o.projects = append(o.projects, p)
	o.lastUndo = func() string {
		for i := range o.projects {
			if o.projects[i].ID == p.ID {
				o.projects = append(o.projects[:i], o.projects[i+1:]...)
				break
			}
		}
		return fmt.Sprintf("Removed the project %q again.", p.Name)
	}
	o.persistLocked()
	return &MutationResult{NewID: p.ID, Message: fmt.Sprintf("Created the project %q.", p.Name)}
}

// AssignTodoToProject links a task to a project. An empty projectID clears
// the link.
func (o *Organizer) AssignTodoToProject(todoID, projectID string) *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	var projName string
	if projectID != "" {
		found := false
		for _, p := range o.projects {
			if p.ID == projectID {
				projName = p.Name
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}
	for i := range o.todos {
		if o.todos[i].ID != todoID {
			continue
		}
		prev := o.todos[i]
		o.todos[i].ProjectID = projectID
		o.lastUndo = func() string {
			o.replaceTodoLocked(prev)
			return fmt.Sprintf("Reverted the project link of %q.", prev.Text)
		}
		o.persistLocked()
		if projectID == "" {
			return &MutationResult{NewID: todoID, Message: fmt.Sprintf("Unlinked %q from its project.", prev.Text)}
		}
		return &MutationResult{NewID: todoID, Message: fmt.Sprintf("Linked %q to the project %q.", prev.Text, projName)}
	}
	return nil
}

// ---- synced collections ----

// SetContacts replaces the contacts collection (synced from the contacts
// collaborator). Not undoable.
func (o *Organizer) SetContacts(cs []Contact) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.contacts = append([]Contact(nil), cs...)
	o.persistLocked()
}

// SetCalendarEvents replaces the calendar events collection. Not undoable.
func (o *Organizer) SetCalendarEvents(evs []CalendarEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calendarEvents = append([]CalendarEvent(nil), evs...)
	o.persistLocked()
}

// ---- filter ----

// SetFilter records the active view filter for a list surface.
func (o *Organizer) SetFilter(list, criteria string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filter = &Filter{List: list, Criteria: criteria}
}

// ClearFilter removes the active view filter.
func (o *Organizer) ClearFilter() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filter = nil
}

// ActiveFilter returns the active filter, or nil.
func (o *Organizer) ActiveFilter() *Filter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filter == nil {
		return nil
	}
	f := *o.filter
	return &f
}

// ---- undo ----

// Undo reverses the most recent mutation. Only one level is kept.
func (o *Organizer) Undo() *MutationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastUndo == nil {
		return &MutationResult{Message: "There is nothing to undo."}
	}
	undo := o.lastUndo
	o.lastUndo = nil
	msg := undo()
	o.persistLocked()
	return &MutationResult{Message: msg}
}

// ---- read access ----

// Todos returns a copy of the task list.
func (o *Organizer) Todos() []Todo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Todo(nil), o.todos...)
}

// ShoppingItems returns a copy of the shopping list.
func (o *Organizer) ShoppingItems() []ShoppingItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]ShoppingItem(nil), o.shopping...)
}

// Notes returns a copy of the notes.
func (o *Organizer) Notes() []Note {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Note(nil), o.notes...)
}

// CustomLists returns a copy of the custom lists.
func (o *Organizer) CustomLists() []CustomList {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]CustomList, len(o.customLists))
	for i, l := range o.customLists {
		l.Items = append([]CustomListItem(nil), l.Items...)
		out[i] = l
	}
	return out
}

// Projects returns a copy of the projects.
func (o *Organizer) Projects() []Project {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Project(nil), o.projects...)
}

// Contacts returns a copy of the contacts.
func (o *Organizer) Contacts() []Contact {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Contact(nil), o.contacts...)
}

// CalendarEvents returns a copy of the calendar events.
func (o *Organizer) CalendarEvents() []CalendarEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]CalendarEvent(nil), o.calendarEvents...)
}

// Snapshot returns the context summary embedded in the session system
// instruction.
func (o *Organizer) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{
		TodoCount:     len(o.todos),
		ShoppingCount: len(o.shopping),
		NoteCount:     len(o.notes),
		ContactCount:  len(o.contacts),
	}
	for _, l := range o.customLists {
		s.CustomLists = append(s.CustomLists, l.Title)
	}
	for _, p := range o.projects {
		s.Projects = append(s.Projects, p.Name)
	}
	return s
}

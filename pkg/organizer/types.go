package organizer

import (
	"time"
)

// Priority of a todo item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps free-form priority text to a Priority.
// Unknown values default to medium.
func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Todo is a single task.
type Todo struct {
	ID        string     `msgpack:"id"`
	Text      string     `msgpack:"text"`
	Done      bool       `msgpack:"done"`
	Priority  Priority   `msgpack:"priority"`
	DueDate   *time.Time `msgpack:"due_date,omitempty"`
	ProjectID string     `msgpack:"project_id,omitempty"`
	CreatedAt time.Time  `msgpack:"created_at"`
}

// ShoppingItem is a single shopping list entry.
type ShoppingItem struct {
	ID        string    `msgpack:"id"`
	Text      string    `msgpack:"text"`
	Quantity  string    `msgpack:"quantity,omitempty"`
	Checked   bool      `msgpack:"checked"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// Note is a free-text note.
type Note struct {
	ID        string    `msgpack:"id"`
	Title     string    `msgpack:"title,omitempty"`
	Content   string    `msgpack:"content"`
	ProjectID string    `msgpack:"project_id,omitempty"`
	CreatedAt time.Time `msgpack:"created_at"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// CustomListItem is an entry of a user-named list.
type CustomListItem struct {
	ID      string `msgpack:"id"`
	Text    string `msgpack:"text"`
	Checked bool   `msgpack:"checked"`
}

// CustomList is a user-named list of items.
type CustomList struct {
	ID        string           `msgpack:"id"`
	Title     string           `msgpack:"title"`
	Items     []CustomListItem `msgpack:"items"`
	CreatedAt time.Time        `msgpack:"created_at"`
}

// Project groups todos and notes.
type Project struct {
	ID        string    `msgpack:"id"`
	Name      string    `msgpack:"name"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// Contact is an address book entry.
type Contact struct {
	ID    string `msgpack:"id"`
	Name  string `msgpack:"name"`
	Email string `msgpack:"email,omitempty"`
	Phone string `msgpack:"phone,omitempty"`
}

// CalendarEvent mirrors an event fetched from the calendar collaborator.
type CalendarEvent struct {
	ID      string    `msgpack:"id"`
	Summary string    `msgpack:"summary"`
	Start   time.Time `msgpack:"start"`
	End     time.Time `msgpack:"end"`
}

// MutationResult is returned by mutation methods. NewID is set for
// creations; Message is a speakable confirmation.
type MutationResult struct {
	NewID   string
	Message string
}

// Filter is the active view filter on one list surface.
type Filter struct {
	List     string
	Criteria string
}

// Snapshot is a read-only context summary embedded in the session system
// instruction: list names and item counts, recomputed on session (re)start.
type Snapshot struct {
	TodoCount     int
	ShoppingCount int
	NoteCount     int
	CustomLists   []string
	Projects      []string
	ContactCount  int
}

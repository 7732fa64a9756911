package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxdesk/voxdesk/pkg/organizer"
	"github.com/voxdesk/voxdesk/pkg/resolve"
)

type createTaskArgs struct {
	Task     string `json:"task"`
	Priority string `json:"priority,omitempty"`
}

type taskRefArgs struct {
	TaskName string `json:"task_name"`
}

type editTaskArgs struct {
	TaskName string `json:"task_name"`
	NewText  string `json:"new_text,omitempty"`
	Priority string `json:"priority,omitempty"`
}

type setDueDateArgs struct {
	TaskName string `json:"task_name"`
	DueDate  string `json:"due_date"`
}

type sortTasksArgs struct {
	By string `json:"by"`
}

func (d *Dispatcher) registerTaskHandlers() {
	register(d, "create_task",
		"Create a new task. Optional priority: low, medium or high.",
		d.createTask)
	register(d, "toggle_task",
		"Mark a task as done, or reopen it if already done.",
		d.toggleTask)
	register(d, "edit_task",
		"Change the text and/or priority of an existing task.",
		d.editTask)
	register(d, "delete_task",
		"Delete a task.",
		d.deleteTask)
	register(d, "set_task_due_date",
		"Set the due date of a task. due_date is an ISO-8601 date or timestamp.",
		d.setTaskDueDate)
	register(d, "show_task_details",
		"Read out the details of a task.",
		d.showTaskDetails)
	register(d, "sort_tasks",
		"Sort the task list by priority, due_date, created or alphabetical.",
		d.sortTasks)
}

// findTodo resolves a spoken task reference against the live collection.
func (d *Dispatcher) findTodo(name string) (organizer.Todo, bool) {
	todos := d.org.Todos()
	m, ok := resolve.BestMatch(todos, name, func(t organizer.Todo) string { return t.Text }, resolve.KindTask)
	if !ok {
		return organizer.Todo{}, false
	}
	return todos[m.Index], true
}

func (d *Dispatcher) createTask(_ context.Context, args createTaskArgs) (string, error) {
	text := strings.TrimSpace(args.Task)
	if text == "" {
		return "I didn't catch what the task should say.", nil
	}

	for _, t := range d.org.Todos() {
		if resolve.Distance(t.Text, text) < duplicateThreshold {
			if !d.setPending(&PendingDuplicate{ItemType: ItemTask, Content: text, Priority: args.Priority}) {
				return "There's already a creation waiting for your confirmation. Please confirm or cancel it first.", nil
			}
			return fmt.Sprintf("You already have a task that sounds like %q. Should I add it anyway?", t.Text), nil
		}
	}

	res := d.org.AddTodo(text, organizer.ParsePriority(args.Priority))
	d.highlight(res.NewID)
	return res.Message, nil
}

func (d *Dispatcher) toggleTask(_ context.Context, args taskRefArgs) (string, error) {
	t, ok := d.findTodo(args.TaskName)
	if !ok {
		return fmt.Sprintf("I couldn't find a task matching %q.", args.TaskName), nil
	}
	res := d.org.ToggleTodo(t.ID)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(t.ID)
	return res.Message, nil
}

func (d *Dispatcher) editTask(_ context.Context, args editTaskArgs) (string, error) {
	t, ok := d.findTodo(args.TaskName)
	if !ok {
		return fmt.Sprintf("I couldn't find a task matching %q.", args.TaskName), nil
	}
	var prio organizer.Priority
	if args.Priority != "" {
		prio = organizer.ParsePriority(args.Priority)
	}
	res := d.org.EditTodo(t.ID, args.NewText, prio)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(t.ID)
	return res.Message, nil
}

func (d *Dispatcher) deleteTask(_ context.Context, args taskRefArgs) (string, error) {
	t, ok := d.findTodo(args.TaskName)
	if !ok {
		return fmt.Sprintf("I couldn't find a task matching %q.", args.TaskName), nil
	}
	res := d.org.DeleteTodo(t.ID)
	if res == nil {
		return apologyGeneric, nil
	}
	return res.Message, nil
}

func (d *Dispatcher) setTaskDueDate(_ context.Context, args setDueDateArgs) (string, error) {
	t, ok := d.findTodo(args.TaskName)
	if !ok {
		return fmt.Sprintf("I couldn't find a task matching %q.", args.TaskName), nil
	}
	due, err := parseWhen(args.DueDate)
	if err != nil {
		return fmt.Sprintf("I couldn't understand the date %q.", args.DueDate), nil
	}
	res := d.org.SetTodoDueDate(t.ID, due)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(t.ID)
	return res.Message, nil
}

func (d *Dispatcher) showTaskDetails(_ context.Context, args taskRefArgs) (string, error) {
	t, ok := d.findTodo(args.TaskName)
	if !ok {
		return fmt.Sprintf("I couldn't find a task matching %q.", args.TaskName), nil
	}
	d.highlight(t.ID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%q is a %s priority task", t.Text, t.Priority)
	if t.Done {
		sb.WriteString(", already done")
	} else {
		sb.WriteString(", still open")
	}
	if t.DueDate != nil {
		fmt.Fprintf(&sb, ", due %s", t.DueDate.Format("January 2"))
	}
	if t.ProjectID != "" {
		for _, p := range d.org.Projects() {
			if p.ID == t.ProjectID {
				fmt.Fprintf(&sb, ", in the project %q", p.Name)
				break
			}
		}
	}
	sb.WriteString(".")
	return sb.String(), nil
}

func (d *Dispatcher) sortTasks(_ context.Context, args sortTasksArgs) (string, error) {
	res := d.org.SortTodos(strings.ToLower(strings.TrimSpace(args.By)))
	if res == nil {
		return fmt.Sprintf("I can sort by priority, due date, creation time or alphabetically, not by %q.", args.By), nil
	}
	return res.Message, nil
}

// parseWhen accepts ISO-8601 timestamps and bare dates.
func parseWhen(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

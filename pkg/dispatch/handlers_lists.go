package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxdesk/voxdesk/pkg/organizer"
	"github.com/voxdesk/voxdesk/pkg/resolve"
)

type createCustomListArgs struct {
	Title string `json:"title"`
}

type addCustomListItemArgs struct {
	ListName string `json:"list_name"`
	Item     string `json:"item"`
}

type listItemRefArgs struct {
	ListName string `json:"list_name"`
	ItemName string `json:"item_name"`
}

type createProjectArgs struct {
	Name string `json:"name"`
}

type linkItemArgs struct {
	ItemName    string `json:"item_name"`
	ProjectName string `json:"project_name,omitempty"`
}

func (d *Dispatcher) registerListHandlers() {
	register(d, "create_custom_list",
		"Create a new custom list with the given title.",
		d.createCustomList)
	register(d, "add_custom_list_item",
		"Add an item to an existing custom list.",
		d.addCustomListItem)
	register(d, "toggle_custom_list_item",
		"Mark an item on a custom list as done, or undone if it already is.",
		d.toggleCustomListItem)
	register(d, "delete_custom_list_item",
		"Remove an item from a custom list.",
		d.deleteCustomListItem)
	register(d, "create_project",
		"Create a new project for grouping tasks.",
		d.createProject)
	register(d, "link_item_to_project",
		"Assign a task to a project, or detach it when project_name is empty.",
		d.linkItemToProject)
}

func (d *Dispatcher) findCustomList(name string) (organizer.CustomList, bool) {
	lists := d.org.CustomLists()
	m, ok := resolve.BestMatch(lists, name, func(l organizer.CustomList) string { return l.Title }, resolve.KindCustomList)
	if !ok {
		return organizer.CustomList{}, false
	}
	return lists[m.Index], true
}

func (d *Dispatcher) findListItem(list organizer.CustomList, name string) (organizer.CustomListItem, bool) {
	m, ok := resolve.BestMatch(list.Items, name, func(it organizer.CustomListItem) string { return it.Text }, resolve.KindListItem)
	if !ok {
		return organizer.CustomListItem{}, false
	}
	return list.Items[m.Index], true
}

func (d *Dispatcher) createCustomList(_ context.Context, args createCustomListArgs) (string, error) {
	title := strings.TrimSpace(args.Title)
	if title == "" {
		return "I didn't catch what the list should be called.", nil
	}
	res := d.org.CreateCustomList(title)
	d.highlight(res.NewID)
	// A new list changes the tool surface the model should know about.
	d.requestRestart()
	return res.Message, nil
}

func (d *Dispatcher) addCustomListItem(_ context.Context, args addCustomListItemArgs) (string, error) {
	list, ok := d.findCustomList(args.ListName)
	if !ok {
		return fmt.Sprintf("I couldn't find a list called %q.", args.ListName), nil
	}

	for _, it := range list.Items {
		if resolve.Distance(it.Text, args.Item) < duplicateThreshold {
			if !d.setPending(&PendingDuplicate{ItemType: ItemListItem, Content: args.Item, ListID: list.ID}) {
				return "There's already a creation waiting for your confirmation. Please confirm or cancel it first.", nil
			}
			return fmt.Sprintf("%q is already on %q. Add it again anyway?", it.Text, list.Title), nil
		}
	}

	res := d.org.AddCustomListItem(list.ID, args.Item)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(res.NewID)
	return res.Message, nil
}

func (d *Dispatcher) toggleCustomListItem(_ context.Context, args listItemRefArgs) (string, error) {
	list, ok := d.findCustomList(args.ListName)
	if !ok {
		return fmt.Sprintf("I couldn't find a list called %q.", args.ListName), nil
	}
	item, ok := d.findListItem(list, args.ItemName)
	if !ok {
		return fmt.Sprintf("I couldn't find %q on %q.", args.ItemName, list.Title), nil
	}
	res := d.org.ToggleCustomListItem(list.ID, item.ID)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(item.ID)
	return res.Message, nil
}

func (d *Dispatcher) deleteCustomListItem(_ context.Context, args listItemRefArgs) (string, error) {
	list, ok := d.findCustomList(args.ListName)
	if !ok {
		return fmt.Sprintf("I couldn't find a list called %q.", args.ListName), nil
	}
	item, ok := d.findListItem(list, args.ItemName)
	if !ok {
		return fmt.Sprintf("I couldn't find %q on %q.", args.ItemName, list.Title), nil
	}
	res := d.org.DeleteCustomListItem(list.ID, item.ID)
	if res == nil {
		return apologyGeneric, nil
	}
	return res.Message, nil
}

func (d *Dispatcher) createProject(_ context.Context, args createProjectArgs) (string, error) {
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return "I didn't catch what the project should be called.", nil
	}
	res := d.org.CreateProject(name)
	d.highlight(res.NewID)
	d.requestRestart()
	return res.Message, nil
}

func (d *Dispatcher) linkItemToProject(_ context.Context, args linkItemArgs) (string, error) {
	t, ok := d.findTodo(args.ItemName)
	if !ok {
		return fmt.Sprintf("I couldn't find a task matching %q.", args.ItemName), nil
	}

	projectID := ""
	if strings.TrimSpace(args.ProjectName) != "" {
		projects := d.org.Projects()
		m, ok := resolve.BestMatch(projects, args.ProjectName, func(p organizer.Project) string { return p.Name }, resolve.KindProject)
		if !ok {
			return fmt.Sprintf("I couldn't find a project called %q.", args.ProjectName), nil
		}
		projectID = projects[m.Index].ID
	}

	res := d.org.AssignTodoToProject(t.ID, projectID)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(t.ID)
	return res.Message, nil
}

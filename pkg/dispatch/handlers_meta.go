package dispatch

import (
	"context"

	"github.com/voxdesk/voxdesk/pkg/organizer"
)

type emptyArgs struct{}

type filterListArgs struct {
	ListName string `json:"list_name"`
	Criteria string `json:"criteria"`
}

func (d *Dispatcher) registerMetaHandlers() {
	register(d, "confirm_duplicate",
		"Confirm a creation that was held back as a near-duplicate.",
		d.confirmDuplicate)
	register(d, "cancel_duplicate",
		"Discard a creation that was held back as a near-duplicate.",
		d.cancelDuplicate)
	register(d, "undo_last_action",
		"Undo the most recent change.",
		d.undoLastAction)
	register(d, "filter_list",
		"Filter a list view by the given criteria.",
		d.filterList)
	register(d, "clear_filter",
		"Clear the active list filter.",
		d.clearFilter)
}

func (d *Dispatcher) confirmDuplicate(_ context.Context, _ emptyArgs) (string, error) {
	p := d.takePending()
	if p == nil {
		return "There's nothing waiting for confirmation.", nil
	}

	var res *organizer.MutationResult
	switch p.ItemType {
	case ItemTask:
		res = d.org.AddTodo(p.Content, organizer.ParsePriority(p.Priority))
	case ItemShopping:
		res = d.org.AddShoppingItem(p.Content, p.Quantity)
	case ItemNote:
		res = d.org.AddNote(p.Title, p.Content)
	case ItemListItem:
		res = d.org.AddCustomListItem(p.ListID, p.Content)
	}
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(res.NewID)
	return res.Message, nil
}

func (d *Dispatcher) cancelDuplicate(_ context.Context, _ emptyArgs) (string, error) {
	if d.takePending() == nil {
		return "There's nothing waiting for confirmation.", nil
	}
	return "Okay, I won't add it.", nil
}

func (d *Dispatcher) undoLastAction(_ context.Context, _ emptyArgs) (string, error) {
	res := d.org.Undo()
	if res == nil {
		return apologyGeneric, nil
	}
	return res.Message, nil
}

func (d *Dispatcher) filterList(_ context.Context, args filterListArgs) (string, error) {
	if args.Criteria == "" {
		return "I didn't catch what to filter by.", nil
	}
	d.org.SetFilter(args.ListName, args.Criteria)
	return "Filtered the view.", nil
}

func (d *Dispatcher) clearFilter(_ context.Context, _ emptyArgs) (string, error) {
	d.org.ClearFilter()
	return "Cleared the filter.", nil
}

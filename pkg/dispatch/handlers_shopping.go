package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxdesk/voxdesk/pkg/organizer"
	"github.com/voxdesk/voxdesk/pkg/resolve"
)

type addShoppingItemArgs struct {
	Item     string `json:"item"`
	Quantity string `json:"quantity,omitempty"`
}

type shoppingRefArgs struct {
	ItemName string `json:"item_name"`
}

type editShoppingItemArgs struct {
	ItemName string `json:"item_name"`
	NewText  string `json:"new_text,omitempty"`
}

func (d *Dispatcher) registerShoppingHandlers() {
	register(d, "add_shopping_item",
		"Add an item to the shopping list, with an optional quantity.",
		d.addShoppingItem)
	register(d, "toggle_shopping_item",
		"Check off a shopping item, or uncheck it.",
		d.toggleShoppingItem)
	register(d, "edit_shopping_item",
		"Change the text of a shopping item.",
		d.editShoppingItem)
	register(d, "delete_shopping_item",
		"Remove an item from the shopping list.",
		d.deleteShoppingItem)
}

func (d *Dispatcher) findShoppingItem(name string) (organizer.ShoppingItem, bool) {
	items := d.org.ShoppingItems()
	m, ok := resolve.BestMatch(items, name, func(it organizer.ShoppingItem) string { return it.Text }, resolve.KindShoppingItem)
	if !ok {
		return organizer.ShoppingItem{}, false
	}
	return items[m.Index], true
}

func (d *Dispatcher) addShoppingItem(_ context.Context, args addShoppingItemArgs) (string, error) {
	text := strings.TrimSpace(args.Item)
	if text == "" {
		return "I didn't catch what to add to the shopping list.", nil
	}

	for _, it := range d.org.ShoppingItems() {
		if resolve.Distance(it.Text, text) < duplicateThreshold {
			if !d.setPending(&PendingDuplicate{ItemType: ItemShopping, Content: text, Quantity: args.Quantity}) {
				return "There's already a creation waiting for your confirmation. Please confirm or cancel it first.", nil
			}
			return fmt.Sprintf("%q sounds like it's already on the shopping list. Add it anyway?", it.Text), nil
		}
	}

	res := d.org.AddShoppingItem(text, args.Quantity)
	d.highlight(res.NewID)
	return res.Message, nil
}

func (d *Dispatcher) toggleShoppingItem(_ context.Context, args shoppingRefArgs) (string, error) {
	it, ok := d.findShoppingItem(args.ItemName)
	if !ok {
		return fmt.Sprintf("I couldn't find %q on the shopping list.", args.ItemName), nil
	}
	res := d.org.ToggleShoppingItem(it.ID)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(it.ID)
	return res.Message, nil
}

func (d *Dispatcher) editShoppingItem(_ context.Context, args editShoppingItemArgs) (string, error) {
	it, ok := d.findShoppingItem(args.ItemName)
	if !ok {
		return fmt.Sprintf("I couldn't find %q on the shopping list.", args.ItemName), nil
	}
	res := d.org.EditShoppingItem(it.ID, args.NewText)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(it.ID)
	return res.Message, nil
}

func (d *Dispatcher) deleteShoppingItem(_ context.Context, args shoppingRefArgs) (string, error) {
	it, ok := d.findShoppingItem(args.ItemName)
	if !ok {
		return fmt.Sprintf("I couldn't find %q on the shopping list.", args.ItemName), nil
	}
	res := d.org.DeleteShoppingItem(it.ID)
	if res == nil {
		return apologyGeneric, nil
	}
	return res.Message, nil
}

package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxdesk/voxdesk/pkg/organizer"
	"github.com/voxdesk/voxdesk/pkg/resolve"
)

type createNoteArgs struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

type noteRefArgs struct {
	NoteRef string `json:"note_ref"`
}

type editNoteArgs struct {
	NoteRef string `json:"note_ref"`
	Content string `json:"content"`
}

func (d *Dispatcher) registerNoteHandlers() {
	register(d, "create_note",
		"Save a note. Title is optional; it is derived from the content when omitted.",
		d.createNote)
	register(d, "edit_note",
		"Replace the content of a note. note_ref may be the title or a fragment of the content.",
		d.editNote)
	register(d, "delete_note",
		"Delete a note.",
		d.deleteNote)
	register(d, "show_note_details",
		"Read a note out loud.",
		d.showNoteDetails)
}

// findNote matches against titles first, then against note bodies with the
// looser free-text threshold.
func (d *Dispatcher) findNote(ref string) (organizer.Note, bool) {
	notes := d.org.Notes()
	if m, ok := resolve.BestMatch(notes, ref, func(n organizer.Note) string { return n.Title }, resolve.KindNoteTitle); ok {
		return notes[m.Index], true
	}
	if m, ok := resolve.BestMatch(notes, ref, func(n organizer.Note) string { return n.Content }, resolve.KindNote); ok {
		return notes[m.Index], true
	}
	return organizer.Note{}, false
}

func (d *Dispatcher) createNote(_ context.Context, args createNoteArgs) (string, error) {
	content := strings.TrimSpace(args.Content)
	if content == "" {
		return "I didn't catch what the note should say.", nil
	}

	for _, n := range d.org.Notes() {
		if resolve.Distance(n.Content, content) < duplicateThreshold {
			if !d.setPending(&PendingDuplicate{ItemType: ItemNote, Content: content, Title: args.Title}) {
				return "There's already a creation waiting for your confirmation. Please confirm or cancel it first.", nil
			}
			return fmt.Sprintf("You already have a very similar note, %q. Save this one anyway?", n.Title), nil
		}
	}

	res := d.org.AddNote(args.Title, content)
	d.highlight(res.NewID)
	return res.Message, nil
}

func (d *Dispatcher) editNote(_ context.Context, args editNoteArgs) (string, error) {
	n, ok := d.findNote(args.NoteRef)
	if !ok {
		return fmt.Sprintf("I couldn't find a note matching %q.", args.NoteRef), nil
	}
	res := d.org.EditNote(n.ID, args.Content)
	if res == nil {
		return apologyGeneric, nil
	}
	d.highlight(n.ID)
	return res.Message, nil
}

func (d *Dispatcher) deleteNote(_ context.Context, args noteRefArgs) (string, error) {
	n, ok := d.findNote(args.NoteRef)
	if !ok {
		return fmt.Sprintf("I couldn't find a note matching %q.", args.NoteRef), nil
	}
	res := d.org.DeleteNote(n.ID)
	if res == nil {
		return apologyGeneric, nil
	}
	return res.Message, nil
}

func (d *Dispatcher) showNoteDetails(_ context.Context, args noteRefArgs) (string, error) {
	n, ok := d.findNote(args.NoteRef)
	if !ok {
		return fmt.Sprintf("I couldn't find a note matching %q.", args.NoteRef), nil
	}
	d.highlight(n.ID)
	return fmt.Sprintf("The note %q says: %s", n.Title, n.Content), nil
}

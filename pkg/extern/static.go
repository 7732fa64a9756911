package extern

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voxdesk/voxdesk/pkg/organizer"
)

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// StaticCalendar is an in-memory Calendar used when no real account is
// linked, and by tests. When Expired is set every call fails with
// ErrAuthorizationExpired.
type StaticCalendar struct {
	Items   []organizer.CalendarEvent
	Expired bool
}

func (c *StaticCalendar) Events(_ context.Context, from, to time.Time) ([]organizer.CalendarEvent, error) {
	if c.Expired {
		return nil, ErrAuthorizationExpired
	}
	var out []organizer.CalendarEvent
	for _, ev := range c.Items {
		if ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (c *StaticCalendar) CreateEvent(_ context.Context, summary string, start, end time.Time) (string, error) {
	if c.Expired {
		return "", ErrAuthorizationExpired
	}
	ev := organizer.CalendarEvent{ID: uuid.NewString(), Summary: summary, Start: start, End: end}
	c.Items = append(c.Items, ev)
	return ev.ID, nil
}

// StaticMail is an in-memory Mail implementation.
type StaticMail struct {
	Inbox   []Email
	Sent    []OutgoingMail
	Expired bool
}

func (m *StaticMail) Search(_ context.Context, query string) ([]Email, error) {
	if m.Expired {
		return nil, ErrAuthorizationExpired
	}
	var out []Email
	for _, e := range m.Inbox {
		if containsFold(e.Subject, query) || containsFold(e.From, query) || containsFold(e.Snippet, query) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *StaticMail) Send(_ context.Context, msg OutgoingMail) error {
	if m.Expired {
		return ErrAuthorizationExpired
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// StaticContacts is an in-memory Contacts implementation.
type StaticContacts struct {
	Items   []organizer.Contact
	Expired bool
}

func (c *StaticContacts) List(_ context.Context) ([]organizer.Contact, error) {
	if c.Expired {
		return nil, ErrAuthorizationExpired
	}
	return append([]organizer.Contact(nil), c.Items...), nil
}

package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxdesk/voxdesk/pkg/extern"
	"github.com/voxdesk/voxdesk/pkg/organizer"
	"github.com/voxdesk/voxdesk/pkg/resolve"
)

type createEventArgs struct {
	Summary   string `json:"summary"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type timeRangeArgs struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type searchMailArgs struct {
	Query string `json:"query"`
}

type sendMailArgs struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CC        string `json:"cc,omitempty"`
	BCC       string `json:"bcc,omitempty"`
}

type findContactArgs struct {
	Name string `json:"name"`
}

type weatherArgs struct {
	Location string `json:"location,omitempty"`
}

func (d *Dispatcher) registerExternalHandlers() {
	register(d, "create_calendar_event",
		"Create a calendar event. Times are RFC 3339 timestamps.",
		d.createCalendarEvent)
	register(d, "check_calendar_conflicts",
		"List calendar events overlapping the given time range.",
		d.checkCalendarConflicts)
	register(d, "search_mail",
		"Search the user's mailbox and summarize the matches.",
		d.searchMail)
	register(d, "send_mail",
		"Send an email on the user's behalf.",
		d.sendMail)
	register(d, "find_contact",
		"Look up a person in the user's address book.",
		d.findContact)
	register(d, "get_weather",
		"Report current weather conditions. Location is optional.",
		d.getWeather)
}

func (d *Dispatcher) createCalendarEvent(ctx context.Context, args createEventArgs) (string, error) {
	if d.calendar == nil {
		return "Your calendar isn't connected.", nil
	}
	start, err := parseWhen(args.StartTime)
	if err != nil {
		return "I couldn't make sense of the start time.", nil
	}
	end, err := parseWhen(args.EndTime)
	if err != nil {
		end = start.Add(time.Hour)
	}

	if _, err := d.calendar.CreateEvent(ctx, args.Summary, start, end); err != nil {
		return "", err
	}
	d.refreshCalendar(ctx, start)
	return fmt.Sprintf("Scheduled %q for %s.", args.Summary, start.Format("Monday, January 2 at 3:04 PM")), nil
}

func (d *Dispatcher) checkCalendarConflicts(ctx context.Context, args timeRangeArgs) (string, error) {
	if d.calendar == nil {
		return "Your calendar isn't connected.", nil
	}
	start, err := parseWhen(args.StartTime)
	if err != nil {
		return "I couldn't make sense of the start time.", nil
	}
	end, err := parseWhen(args.EndTime)
	if err != nil {
		end = start.Add(time.Hour)
	}

	events, err := d.calendar.Events(ctx, start, end)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "That time looks free.", nil
	}
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, fmt.Sprintf("%q at %s", ev.Summary, ev.Start.Format("3:04 PM")))
	}
	return fmt.Sprintf("You have %d overlapping events: %s.", len(events), strings.Join(names, ", ")), nil
}

// refreshCalendar keeps the organizer's cached event list current so the next
// session restart hands the model an up-to-date schedule.
func (d *Dispatcher) refreshCalendar(ctx context.Context, around time.Time) {
	events, err := d.calendar.Events(ctx, around.AddDate(0, 0, -1), around.AddDate(0, 0, 14))
	if err != nil {
		return
	}
	d.org.SetCalendarEvents(events)
}

func (d *Dispatcher) searchMail(ctx context.Context, args searchMailArgs) (string, error) {
	if d.mail == nil {
		return "Your mailbox isn't connected.", nil
	}
	emails, err := d.mail.Search(ctx, args.Query)
	if err != nil {
		return "", err
	}
	if len(emails) == 0 {
		return fmt.Sprintf("I didn't find any mail matching %q.", args.Query), nil
	}
	parts := make([]string, 0, len(emails))
	for i, e := range emails {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more", len(emails)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("%q from %s", e.Subject, e.From))
	}
	return fmt.Sprintf("I found %d messages: %s.", len(emails), strings.Join(parts, ", ")), nil
}

func (d *Dispatcher) sendMail(ctx context.Context, args sendMailArgs) (string, error) {
	if d.mail == nil {
		return "Your mailbox isn't connected.", nil
	}
	recipient := args.Recipient
	// Spoken recipients are usually names, not addresses.
	if !strings.Contains(recipient, "@") && d.contacts != nil {
		if c, ok := d.lookupContact(ctx, recipient); ok && c.Email != "" {
			recipient = c.Email
		}
	}
	if !strings.Contains(recipient, "@") {
		return fmt.Sprintf("I don't have an email address for %q.", args.Recipient), nil
	}

	err := d.mail.Send(ctx, extern.OutgoingMail{
		Recipient: recipient,
		Subject:   args.Subject,
		Body:      args.Body,
		CC:        args.CC,
		BCC:       args.BCC,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent the email to %s.", recipient), nil
}

func (d *Dispatcher) lookupContact(ctx context.Context, name string) (organizer.Contact, bool) {
	people := d.org.Contacts()
	if len(people) == 0 && d.contacts != nil {
		fetched, err := d.contacts.List(ctx)
		if err != nil {
			return organizer.Contact{}, false
		}
		d.org.SetContacts(fetched)
		people = fetched
	}
	m, ok := resolve.BestMatch(people, name, func(c organizer.Contact) string { return c.Name }, resolve.KindContact)
	if !ok {
		return organizer.Contact{}, false
	}
	return people[m.Index], true
}

func (d *Dispatcher) findContact(ctx context.Context, args findContactArgs) (string, error) {
	if d.contacts == nil {
		return "Your contacts aren't connected.", nil
	}
	if len(d.org.Contacts()) == 0 {
		people, err := d.contacts.List(ctx)
		if err != nil {
			return "", err
		}
		d.org.SetContacts(people)
	}
	c, ok := d.lookupContact(ctx, args.Name)
	if !ok {
		return fmt.Sprintf("I couldn't find anyone called %q in your contacts.", args.Name), nil
	}
	d.highlight(c.ID)
	switch {
	case c.Email != "" && c.Phone != "":
		return fmt.Sprintf("%s: email %s, phone %s.", c.Name, c.Email, c.Phone), nil
	case c.Email != "":
		return fmt.Sprintf("%s: email %s.", c.Name, c.Email), nil
	case c.Phone != "":
		return fmt.Sprintf("%s: phone %s.", c.Name, c.Phone), nil
	default:
		return fmt.Sprintf("I have %s in your contacts, but no email or phone number.", c.Name), nil
	}
}

func (d *Dispatcher) getWeather(ctx context.Context, args weatherArgs) (string, error) {
	if d.weather == nil {
		return "Weather lookups aren't available right now.", nil
	}
	report, err := d.weather.Current(ctx, args.Location)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("In %s it's currently %s, %.0f degrees with wind around %.0f kilometers per hour.",
		report.Location, report.Description, report.TempC, report.WindKMH), nil
}

// Package extern defines the narrow interfaces to network collaborators the
// command handlers call: calendar, mail, contacts and weather. All methods
// take a context and may fail; an expired authorization is reported through
// ErrAuthorizationExpired so dispatch can phrase it differently from a
// generic failure without tearing down the audio session.
package extern

import (
	"context"
	"errors"
	"time"

	"github.com/voxdesk/voxdesk/pkg/organizer"
)

// ErrAuthorizationExpired marks collaborator failures caused by an expired
// or revoked grant. Callers match it with errors.Is.
var ErrAuthorizationExpired = errors.New("authorization expired")

// Email is a mail search result.
type Email struct {
	ID      string
	From    string
	Subject string
	Snippet string
	Date    time.Time
}

// OutgoingMail is a message to send.
type OutgoingMail struct {
	Recipient string
	Subject   string
	Body      string
	CC        string
	BCC       string
}

// WeatherReport is a current-conditions summary.
type WeatherReport struct {
	Location    string
	Description string
	TempC       float64
	WindKMH     float64
}

// Calendar reads and writes the user's calendar.
type Calendar interface {
	// Events returns events overlapping [from, to).
	Events(ctx context.Context, from, to time.Time) ([]organizer.CalendarEvent, error)

	// CreateEvent creates an event and returns its ID.
	CreateEvent(ctx context.Context, summary string, start, end time.Time) (string, error)
}

// Mail searches and sends mail.
type Mail interface {
	Search(ctx context.Context, query string) ([]Email, error)
	Send(ctx context.Context, msg OutgoingMail) error
}

// Contacts lists the user's address book.
type Contacts interface {
	List(ctx context.Context) ([]organizer.Contact, error)
}

// Weather reports current conditions. An empty location means the user's
// default location.
type Weather interface {
	Current(ctx context.Context, location string) (*WeatherReport, error)
}

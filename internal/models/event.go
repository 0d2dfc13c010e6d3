package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// EventStatusActive is the status of an event that is currently collecting requests
	EventStatusActive = "active"
	// EventStatusEnded is the terminal status of an event - the transition is one-way
	EventStatusEnded = "ended"
)

// RecurringDateSentinel is the placeholder date stored for recurring events that have no fixed date.
// Clients are expected to check IsRecurring instead of displaying it
const RecurringDateSentinel = "2099-01-01"

// GenreTags is a list of genre names stored as a JSON text column
type GenreTags []string

// Value implements driver.Valuer so genre tags can be written as a single column
func (g GenreTags) Value() (driver.Value, error) {
	if len(g) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("GenreTags: failed to marshal: %v", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for reading the JSON text column back
func (g *GenreTags) Scan(src interface{}) error {
	if src == nil {
		*g = GenreTags{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("GenreTags: cannot scan from %T", src)
	}
	if len(data) == 0 {
		*g = GenreTags{}
		return nil
	}
	return json.Unmarshal(data, g)
}

// Event describes one DJ's request-collection session
// Events are identified publicly by their slug; attendees never see the numeric ID of the owning DJ's data
type Event struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// The DJ owning this event
	DJID uint `db:"djId" json:"djId"`
	// URL-safe public identifier
	Slug string `db:"slug" json:"slug"`
	// Display name of the event
	Name string `db:"name" json:"name"`
	// The date the event takes place at (YYYY-MM-DD) - a sentinel for recurring events
	Date string `db:"date" json:"date"`
	// Recurring events have no fixed date and are switched live via the Visible flag
	IsRecurring bool `db:"isRecurring" json:"isRecurring"`
	// Lifecycle status - see EventStatus* constants
	Status string `db:"status" json:"status"`
	// Is the request queue shown to attendees?
	QueueVisible bool `db:"queueVisible" json:"queueVisible"`
	// Activation flag for recurring events - independent of Status
	Visible bool `db:"visible" json:"visible"`
	// Maximum number of submissions per identity per hour - 0 disables rate limiting
	RequestsPerHour uint `db:"requestsPerHour" json:"requestsPerHour"`
	// Message shown to rate-limited attendees instead of the default one
	RateLimitMessage string `db:"rateLimitMessage" json:"rateLimitMessage,omitempty"`
	// Genres played at this event
	GenreTags GenreTags `db:"genreTags" json:"genreTags"`
	// Payout handle shown to attendees who want to tip
	VenmoHandle string `db:"venmoHandle" json:"venmoHandle,omitempty"`
	// Cover image for the attendee-facing page
	CoverImageURL string `db:"coverImageUrl" json:"coverImageUrl,omitempty"`
	// Social metadata
	InstagramHandle string `db:"instagramHandle" json:"instagramHandle,omitempty"`
	WebsiteURL      string `db:"websiteUrl" json:"websiteUrl,omitempty"`
	// When was the event ended?
	EndedAt *time.Time `db:"endedAt" json:"endedAt,omitempty"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}

// Active checks if the event still accepts submissions
func (e *Event) Active() bool {
	return e.Status == EventStatusActive
}

// EventPatch is a partial update to an event. Nil fields are left untouched.
// It is consumed by a single parameterized UPDATE statement in the event repository
type EventPatch struct {
	Name             *string    `json:"name"`
	Date             *string    `json:"date"`
	QueueVisible     *bool      `json:"queueVisible"`
	Visible          *bool      `json:"visible"`
	RequestsPerHour  *uint      `json:"requestsPerHour"`
	RateLimitMessage *string    `json:"rateLimitMessage"`
	GenreTags        *GenreTags `json:"genreTags"`
	VenmoHandle      *string    `json:"venmoHandle"`
	CoverImageURL    *string    `json:"coverImageUrl"`
	InstagramHandle  *string    `json:"instagramHandle"`
	WebsiteURL       *string    `json:"websiteUrl"`
}

// Empty checks if the patch contains no fields to update
func (p *EventPatch) Empty() bool {
	return p.Name == nil && p.Date == nil && p.QueueVisible == nil && p.Visible == nil &&
		p.RequestsPerHour == nil && p.RateLimitMessage == nil && p.GenreTags == nil &&
		p.VenmoHandle == nil && p.CoverImageURL == nil && p.InstagramHandle == nil &&
		p.WebsiteURL == nil
}

// Package repos contains the repository interfaces needed in Turntable
// It exists to prevent circular dependencies between the service layer and the repo implementations
package repos

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/derWhity/turntable/internal/models"
)

var (
	// ErrEntityNotExisting is fired by a repository when an entity that is read, updated or deleted does not exist
	ErrEntityNotExisting = fmt.Errorf("entity does not exist")
	// ErrAlreadyUpvoted is fired by the request repository when an identity tries to upvote a request it has
	// already upvoted
	ErrAlreadyUpvoted = fmt.Errorf("identity has already upvoted this request")
)

// EventRepo defines a repository that handles storing and querying events
type EventRepo interface {
	// Create creates a new event
	Create(ev *models.Event) error
	// GetByID returns the event with the given internal ID
	GetByID(id uint) (*models.Event, error)
	// GetBySlug returns the event with the given public slug
	GetBySlug(slug string) (*models.Event, error)
	// ListByDJ returns all events owned by the given DJ, newest first
	ListByDJ(djID uint) ([]models.Event, error)
	// UpdatePartial applies the non-nil fields of the given patch to the event with the given slug
	UpdatePartial(slug string, patch *models.EventPatch) error
	// MarkEnded transitions the event into the terminal "ended" status
	MarkEnded(slug string, endedAt time.Time) error
	// Delete removes the event and all of its requests (the DJ's block list is not affected)
	Delete(slug string) error
}

// RequestRepo defines a repository that stores song requests and their upvoter identities
type RequestRepo interface {
	// Create persists a new song request together with its initial upvoter (the submitter)
	Create(req *models.SongRequest) error
	// GetByID returns the request with the given ID including its upvoter identities
	GetByID(id string) (*models.SongRequest, error)
	// ListOpen returns all requests of an event that are still in the queued or pinned state
	ListOpen(eventID uint) ([]models.SongRequest, error)
	// ListByEvent returns all requests of an event regardless of status, including upvoter identities
	ListByEvent(eventID uint) ([]models.SongRequest, error)
	// ListByDJ returns all requests across all events owned by the given DJ
	ListByDJ(djID uint) ([]models.SongRequest, error)
	// AddUpvote atomically registers an upvote by the given identity and returns the updated request.
	// Returns ErrAlreadyUpvoted if the identity is already present in the request's upvoter set
	AddUpvote(requestID string, identity string) (*models.SongRequest, error)
	// SetStatus updates the status of a request, stamping the played timestamp when provided
	SetStatus(id string, status string, playedAt *time.Time) error
	// CountRecentByIdentity counts the requests an identity has submitted to an event since the
	// given point in time - used by the rate limiter
	CountRecentByIdentity(eventID uint, identity string, since time.Time) (uint, error)
}

// BlocklistRepo defines a repository that stores the DJ-scoped block patterns
type BlocklistRepo interface {
	// Create creates a new block list entry
	Create(entry *models.BlockListEntry) error
	// GetByID returns the entry with the given ID
	GetByID(id string) (*models.BlockListEntry, error)
	// ListByDJ returns all entries owned by the given DJ, newest first
	ListByDJ(djID uint) ([]models.BlockListEntry, error)
	// ListPatterns returns just the patterns owned by the given DJ - used on every submission
	ListPatterns(djID uint) ([]string, error)
	// Delete removes an entry
	Delete(id string) error
}

// DJRepo defines a repository that stores the DJ accounts owning events and block lists
type DJRepo interface {
	// Create creates a new DJ account
	Create(dj *models.DJ) error
	// GetByID returns the DJ with the given ID
	GetByID(id uint) (*models.DJ, error)
	// GetByEmail returns the DJ with the given login e-mail address
	GetByEmail(email string) (*models.DJ, error)
}

// SessionRepo stores information about active API sessions
type SessionRepo interface {
	// CreateFor creates a new session for the given DJ ID
	CreateFor(djID uint) (*models.Session, error)
	// GetByID returns the session associated with the given session ID and extends it's expiry if requested
	GetByID(sessionID string, extend bool) (*models.Session, error)
	// Delete removes a session from the session storage
	Delete(sessionID string) error
}

// -- Helpers for SQLX repos -------------------------------------------------------------------------------------------

// DoRollback rolls back a transaction and catches any error resulting from it while appending the original error
func DoRollback(tx *sqlx.Tx, originalError error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("doRollback: Transaction rollback failed: %v; Recent error: %v", err, originalError)
	}
	return originalError
}

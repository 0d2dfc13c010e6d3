// Package sqlite provides an event repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derWhity/turntable/internal/log"
	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
	"github.com/jmoiron/sqlx"
)

const (
	eventFields = `djId, slug, name, date, isRecurring, status, queueVisible, visible, requestsPerHour,
        rateLimitMessage, genreTags, venmoHandle, coverImageUrl, instagramHandle, websiteUrl, endedAt,
        createdAt, updatedAt`
)

// EventRepo is a repository that stores its data inside a SQLite database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new event repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new event
func (r *EventRepo) Create(ev *models.Event) error {
	r.logger.WithField("name", ev.Name).Debug("Adding new event")
	query := fmt.Sprintf(
		`INSERT INTO Events(%s)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, datetime('now'), datetime('now'))`,
		eventFields,
	)
	res, err := r.db.Exec(
		query, ev.DJID, ev.Slug, ev.Name, ev.Date, ev.IsRecurring, ev.Status, ev.QueueVisible, ev.Visible,
		ev.RequestsPerHour, ev.RateLimitMessage, ev.GenreTags, ev.VenmoHandle, ev.CoverImageURL,
		ev.InstagramHandle, ev.WebsiteURL,
	)
	if err != nil {
		return err
	}
	// Setting the dates like this should be enough for now
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		ev.ID = uint(id)
	}
	return err
}

// GetByID returns the Event with the given internal ID
func (r *EventRepo) GetByID(id uint) (*models.Event, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading event")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE id = ?", eventFields)
	var ev models.Event
	err := r.db.Get(&ev, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &ev, nil
}

// GetBySlug returns the Event with the given public slug
func (r *EventRepo) GetBySlug(slug string) (*models.Event, error) {
	r.logger.WithField(log.FldEvent, slug).Debug("Loading event by slug")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE slug = ?", eventFields)
	var ev models.Event
	err := r.db.Get(&ev, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &ev, nil
}

// ListByDJ returns all events owned by the given DJ - newest first
func (r *EventRepo) ListByDJ(djID uint) ([]models.Event, error) {
	r.logger.WithField(log.FldDJ, djID).Debug("Listing events")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE djId = ? ORDER BY createdAt DESC, id DESC", eventFields)
	ret := []models.Event{}
	if err := r.db.Select(&ret, query, djID); err != nil {
		return nil, err
	}
	return ret, nil
}

// UpdatePartial applies the non-nil fields of the given patch to the event with the given slug
func (r *EventRepo) UpdatePartial(slug string, patch *models.EventPatch) error {
	r.logger.WithField(log.FldEvent, slug).Debug("Updating event")
	// COALESCE leaves a column untouched when the corresponding patch field is nil
	query := `UPDATE Events SET
        name = COALESCE(?, name),
        date = COALESCE(?, date),
        queueVisible = COALESCE(?, queueVisible),
        visible = COALESCE(?, visible),
        requestsPerHour = COALESCE(?, requestsPerHour),
        rateLimitMessage = COALESCE(?, rateLimitMessage),
        genreTags = COALESCE(?, genreTags),
        venmoHandle = COALESCE(?, venmoHandle),
        coverImageUrl = COALESCE(?, coverImageUrl),
        instagramHandle = COALESCE(?, instagramHandle),
        websiteUrl = COALESCE(?, websiteUrl),
        updatedAt = datetime('now')
        WHERE slug = ?`
	var tags interface{}
	if patch.GenreTags != nil {
		tags = *patch.GenreTags
	}
	res, err := r.db.Exec(
		query, patch.Name, patch.Date, patch.QueueVisible, patch.Visible, patch.RequestsPerHour,
		patch.RateLimitMessage, tags, patch.VenmoHandle, patch.CoverImageURL, patch.InstagramHandle,
		patch.WebsiteURL, slug,
	)
	if err != nil {
		return err
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// MarkEnded transitions the event into the terminal "ended" status
func (r *EventRepo) MarkEnded(slug string, endedAt time.Time) error {
	r.logger.WithField(log.FldEvent, slug).Debug("Ending event")
	query := `UPDATE Events SET status = ?, endedAt = ?, updatedAt = datetime('now') WHERE slug = ?`
	res, err := r.db.Exec(query, models.EventStatusEnded, endedAt, slug)
	if err != nil {
		return err
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes the event together with all of its requests and their upvoter entries
func (r *EventRepo) Delete(slug string) error {
	r.logger.WithField(log.FldEvent, slug).Debug("Deleting event")
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	var id uint
	if err = tx.Get(&id, `SELECT id FROM Events WHERE slug = ?`, slug); err != nil {
		if err == sql.ErrNoRows {
			return repos.DoRollback(tx, repos.ErrEntityNotExisting)
		}
		return repos.DoRollback(tx, err)
	}
	queries := []string{
		`DELETE FROM RequestUpvoters WHERE requestId IN (SELECT id FROM SongRequests WHERE eventId = ?)`,
		`DELETE FROM SongRequests WHERE eventId = ?`,
		`DELETE FROM Events WHERE id = ?`,
	}
	for _, query := range queries {
		if _, err = tx.Exec(query, id); err != nil {
			return repos.DoRollback(tx, err)
		}
	}
	return tx.Commit()
}

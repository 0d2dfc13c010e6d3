// Package sqlite provides a song request repository that stores its data inside a SQLite database
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
	requestFields = `eventId, songName, artist, requesterName, upvotes, requesterIdentity, status, createdAt, playedAt`
)

// RequestRepo is a repository that stores song requests and their upvoter identities in a SQLite database
type RequestRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new request repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *RequestRepo {
	return &RequestRepo{
		db:     db,
		logger: logger,
	}
}

// Create persists a new song request together with its initial upvoter (the submitter)
func (r *RequestRepo) Create(req *models.SongRequest) error {
	r.logger.WithFields(logrus.Fields{
		log.FldEvent: req.EventID,
		"song":       req.SongName,
	}).Debug("Adding new song request")
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		"INSERT INTO SongRequests(id, %s) VALUES(?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), NULL)",
		requestFields,
	)
	if _, err = tx.Exec(
		query, req.ID, req.EventID, req.SongName, req.Artist, req.RequesterName, req.Upvotes,
		req.RequesterIdentity, req.Status,
	); err != nil {
		return repos.DoRollback(tx, err)
	}
	query = `INSERT INTO RequestUpvoters(requestId, identity, createdAt) VALUES(?, ?, datetime('now'))`
	if _, err = tx.Exec(query, req.ID, req.RequesterIdentity); err != nil {
		return repos.DoRollback(tx, err)
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	req.CreatedAt = time.Now()
	req.Upvoters = []string{req.RequesterIdentity}
	return nil
}

// GetByID returns the request with the given ID including its upvoter identities
func (r *RequestRepo) GetByID(id string) (*models.SongRequest, error) {
	r.logger.WithField(log.FldRequest, id).Debug("Loading song request")
	query := fmt.Sprintf("SELECT id, %s FROM SongRequests WHERE id = ?", requestFields)
	var req models.SongRequest
	if err := r.db.Get(&req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	if err := r.attachUpvoters([]*models.SongRequest{&req}); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListOpen returns all requests of an event that are still in the queued or pinned state.
// The list is ordered by creation time - the queue ordering itself happens in the service layer
func (r *RequestRepo) ListOpen(eventID uint) ([]models.SongRequest, error) {
	query := fmt.Sprintf(
		"SELECT id, %s FROM SongRequests WHERE eventId = ? AND status IN (?, ?) ORDER BY createdAt ASC, id ASC",
		requestFields,
	)
	ret := []models.SongRequest{}
	if err := r.db.Select(&ret, query, eventID, models.RequestStatusQueued, models.RequestStatusPinned); err != nil {
		return nil, err
	}
	return ret, nil
}

// ListByEvent returns all requests of an event regardless of status, including upvoter identities
func (r *RequestRepo) ListByEvent(eventID uint) ([]models.SongRequest, error) {
	query := fmt.Sprintf(
		"SELECT id, %s FROM SongRequests WHERE eventId = ? ORDER BY createdAt ASC, id ASC",
		requestFields,
	)
	ret := []models.SongRequest{}
	if err := r.db.Select(&ret, query, eventID); err != nil {
		return nil, err
	}
	if err := r.attachUpvoters(asPtrs(ret)); err != nil {
		return nil, err
	}
	return ret, nil
}

// ListByDJ returns all requests across all events owned by the given DJ
func (r *RequestRepo) ListByDJ(djID uint) ([]models.SongRequest, error) {
	query := `SELECT r.id, r.eventId, r.songName, r.artist, r.requesterName, r.upvotes, r.requesterIdentity,
        r.status, r.createdAt, r.playedAt
        FROM SongRequests r
        INNER JOIN Events e ON e.id = r.eventId
        WHERE e.djId = ? ORDER BY r.createdAt ASC, r.id ASC`
	ret := []models.SongRequest{}
	if err := r.db.Select(&ret, query, djID); err != nil {
		return nil, err
	}
	if err := r.attachUpvoters(asPtrs(ret)); err != nil {
		return nil, err
	}
	return ret, nil
}

// AddUpvote atomically registers an upvote by the given identity and returns the updated request.
// The INSERT OR IGNORE into the upvoter table doubles as the duplicate check - zero affected rows
// means the identity has already upvoted
func (r *RequestRepo) AddUpvote(requestID string, identity string) (*models.SongRequest, error) {
	r.logger.WithFields(logrus.Fields{
		log.FldRequest:  requestID,
		log.FldIdentity: identity,
	}).Debug("Upvoting song request")
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	var exists uint
	if err = tx.Get(&exists, `SELECT COUNT(*) FROM SongRequests WHERE id = ?`, requestID); err != nil {
		return nil, repos.DoRollback(tx, err)
	}
	if exists == 0 {
		return nil, repos.DoRollback(tx, repos.ErrEntityNotExisting)
	}
	query := `INSERT OR IGNORE INTO RequestUpvoters(requestId, identity, createdAt) VALUES(?, ?, datetime('now'))`
	res, err := tx.Exec(query, requestID, identity)
	if err != nil {
		return nil, repos.DoRollback(tx, err)
	}
	var num int64
	if num, err = res.RowsAffected(); err != nil {
		return nil, repos.DoRollback(tx, err)
	}
	if num == 0 {
		return nil, repos.DoRollback(tx, repos.ErrAlreadyUpvoted)
	}
	if _, err = tx.Exec(`UPDATE SongRequests SET upvotes = upvotes + 1 WHERE id = ?`, requestID); err != nil {
		return nil, repos.DoRollback(tx, err)
	}
	var req models.SongRequest
	query = fmt.Sprintf("SELECT id, %s FROM SongRequests WHERE id = ?", requestFields)
	if err = tx.Get(&req, query, requestID); err != nil {
		return nil, repos.DoRollback(tx, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &req, nil
}

// SetStatus updates the status of a request, stamping the played timestamp when provided
func (r *RequestRepo) SetStatus(id string, status string, playedAt *time.Time) error {
	r.logger.WithFields(logrus.Fields{
		log.FldRequest: id,
		log.FldStatus:  status,
	}).Debug("Updating song request status")
	query := `UPDATE SongRequests SET status = ?, playedAt = COALESCE(?, playedAt) WHERE id = ?`
	res, err := r.db.Exec(query, status, playedAt, id)
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

// CountRecentByIdentity counts the requests an identity has submitted to an event since the given point in time
func (r *RequestRepo) CountRecentByIdentity(eventID uint, identity string, since time.Time) (uint, error) {
	// createdAt holds UTC text written by datetime('now'), and SQLite compares text columns as
	// plain strings - the bound value has to use the same zone and shape
	query := `SELECT COUNT(*) FROM SongRequests WHERE eventId = ? AND requesterIdentity = ? AND createdAt >= ?`
	var num uint
	if err := r.db.Get(&num, query, eventID, identity, since.UTC().Format("2006-01-02 15:04:05")); err != nil {
		return 0, err
	}
	return num, nil
}

// attachUpvoters loads the upvoter identities for the given requests in a single query
func (r *RequestRepo) attachUpvoters(requests []*models.SongRequest) error {
	if len(requests) == 0 {
		return nil
	}
	byID := make(map[string]*models.SongRequest, len(requests))
	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		req.Upvoters = []string{}
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}
	query, args, err := sqlx.In(
		`SELECT requestId, identity FROM RequestUpvoters WHERE requestId IN (?) ORDER BY createdAt ASC`, ids,
	)
	if err != nil {
		return err
	}
	rows, err := r.db.Query(r.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var requestID, identity string
		if err = rows.Scan(&requestID, &identity); err != nil {
			return err
		}
		if req, ok := byID[requestID]; ok {
			req.Upvoters = append(req.Upvoters, identity)
		}
	}
	return rows.Err()
}

func asPtrs(requests []models.SongRequest) []*models.SongRequest {
	ptrs := make([]*models.SongRequest, len(requests))
	for i := range requests {
		ptrs[i] = &requests[i]
	}
	return ptrs
}

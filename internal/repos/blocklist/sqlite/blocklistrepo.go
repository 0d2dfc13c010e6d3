// Package sqlite provides a block list repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/derWhity/turntable/internal/log"
	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
	"github.com/jmoiron/sqlx"
)

// BlocklistRepo is a repository that stores the DJ-scoped block patterns in a SQLite database
type BlocklistRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new block list repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *BlocklistRepo {
	return &BlocklistRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new block list entry
func (r *BlocklistRepo) Create(entry *models.BlockListEntry) error {
	r.logger.WithField(log.FldDJ, entry.DJID).Debug("Adding block list entry")
	query := `INSERT INTO Blocklist(id, djId, pattern, createdAt) VALUES(?, ?, ?, datetime('now'))`
	_, err := r.db.Exec(query, entry.ID, entry.DJID, entry.Pattern)
	return err
}

// GetByID returns the entry with the given ID
func (r *BlocklistRepo) GetByID(id string) (*models.BlockListEntry, error) {
	query := `SELECT id, djId, pattern, createdAt FROM Blocklist WHERE id = ?`
	var entry models.BlockListEntry
	if err := r.db.Get(&entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &entry, nil
}

// ListByDJ returns all entries owned by the given DJ - newest first
func (r *BlocklistRepo) ListByDJ(djID uint) ([]models.BlockListEntry, error) {
	query := `SELECT id, djId, pattern, createdAt FROM Blocklist WHERE djId = ? ORDER BY createdAt DESC, id DESC`
	ret := []models.BlockListEntry{}
	if err := r.db.Select(&ret, query, djID); err != nil {
		return nil, err
	}
	return ret, nil
}

// ListPatterns returns just the patterns owned by the given DJ - this runs on every submission,
// so it skips loading the full entries
func (r *BlocklistRepo) ListPatterns(djID uint) ([]string, error) {
	query := `SELECT pattern FROM Blocklist WHERE djId = ?`
	ret := []string{}
	if err := r.db.Select(&ret, query, djID); err != nil {
		return nil, err
	}
	return ret, nil
}

// Delete removes an entry
func (r *BlocklistRepo) Delete(id string) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting block list entry")
	res, err := r.db.Exec(`DELETE FROM Blocklist WHERE id = ?`, id)
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

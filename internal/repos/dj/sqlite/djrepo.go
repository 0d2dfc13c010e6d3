// Package sqlite provides a DJ account repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derWhity/turntable/internal/log"
	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
	"github.com/jmoiron/sqlx"
)

const (
	djFields = `email, passwordHash, name, venmoHandle, createdAt`
)

// DJRepo is a repository that stores the DJ accounts in a SQLite database
type DJRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new DJ repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *DJRepo {
	return &DJRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new DJ account
func (r *DJRepo) Create(dj *models.DJ) error {
	r.logger.WithField("email", dj.Email).Debug("Adding new DJ account")
	query := `INSERT INTO DJs(email, passwordHash, name, venmoHandle, createdAt)
        VALUES(?, ?, ?, ?, datetime('now'))`
	res, err := r.db.Exec(query, dj.Email, dj.PasswordHash, dj.Name, dj.VenmoHandle)
	if err != nil {
		return err
	}
	dj.CreatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		dj.ID = uint(id)
	}
	return err
}

// GetByID returns the DJ with the given ID
func (r *DJRepo) GetByID(id uint) (*models.DJ, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading DJ account")
	var dj models.DJ
	if err := r.db.Get(&dj, `SELECT id, `+djFields+` FROM DJs WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &dj, nil
}

// GetByEmail returns the DJ with the given login e-mail address
func (r *DJRepo) GetByEmail(email string) (*models.DJ, error) {
	var dj models.DJ
	if err := r.db.Get(&dj, `SELECT id, `+djFields+` FROM DJs WHERE email = ?`, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &dj, nil
}

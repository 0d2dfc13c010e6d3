// Package migrate handles SQL database migration for the internal Turntable database
package migrate

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var migrations []dbMigration

type dbMigration struct {
	Version uint
	Queries []string
}

// Execute runs the current DB migration on the given database
func (mig *dbMigration) Execute(db *sqlx.DB, logger *logrus.Entry) error {
	// Check if the migration has already run
	query := `SELECT success FROM Migrations WHERE version = $1`
	var success = false
	err := db.QueryRow(query, mig.Version).Scan(&success)
	if err != nil && err != sql.ErrNoRows {
		logger.WithError(err).Error("Failed to fetch version information")
		return err
	}
	if !success {
		// We need to execute this migration
		logger.Infof("Executing DB migration #%d", mig.Version)
		for i, query := range mig.Queries {
			logger.Infof("Query %d of %d...", (i + 1), len(mig.Queries))
			if _, err := db.Exec(query); err != nil {
				logger.WithError(err).Errorf("Query #%d failed", (i + 1))
				db.Exec(`REPLACE INTO Migrations(version, success) VALUES($1, 0)`, mig.Version)
				return err
			}
		}
		// Queries executed successfully - save our status
		db.Exec(`REPLACE INTO Migrations(version, success) VALUES($1, 1)`, mig.Version)
	}
	return nil
}

// ExecuteMigrationsOnDb executes the database migrations on the given database instance
func ExecuteMigrationsOnDb(db *sqlx.DB, logger *logrus.Entry) error {
	// Create the migrations table if it does not exist, yet
	query := `CREATE TABLE IF NOT EXISTS Migrations (
                version   INTEGER NOT NULL,
                success   INTEGER NOT NULL DEFAULT 0,
                PRIMARY KEY(version)
            )`
	if _, err := db.Exec(query); err != nil {
		logger.WithError(err).Error("Failed to create migrations table")
		return err
	}
	for _, mig := range migrations {
		if err := mig.Execute(db, logger); err != nil {
			logger.WithError(err).Errorf("Failed to execute migration #%d", mig.Version)
			return err
		}
	}
	return nil
}

// For now, the migrations are part of the package...
func init() {
	migrations = []dbMigration{
		{
			Version: 1,
			Queries: []string{
				`CREATE TABLE "DJs" (
                    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
                    email VARCHAR(255) NOT NULL UNIQUE,
                    passwordHash VARCHAR(128) NOT NULL DEFAULT '',
                    name VARCHAR(128) NOT NULL DEFAULT '',
                    venmoHandle VARCHAR(64) NOT NULL DEFAULT '',
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE TABLE "Events" (
                    id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
                    djId INTEGER NOT NULL,
                    slug VARCHAR(160) NOT NULL UNIQUE,
                    name VARCHAR(128) NOT NULL DEFAULT '',
                    date VARCHAR(10) NOT NULL DEFAULT '',
                    isRecurring INTEGER NOT NULL DEFAULT 0,
                    status VARCHAR(16) NOT NULL DEFAULT 'active',
                    queueVisible INTEGER NOT NULL DEFAULT 1,
                    visible INTEGER NOT NULL DEFAULT 1,
                    requestsPerHour INTEGER NOT NULL DEFAULT 0,
                    rateLimitMessage VARCHAR(1024) NOT NULL DEFAULT '',
                    genreTags TEXT NOT NULL DEFAULT '[]',
                    endedAt DATETIME,
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE TABLE "SongRequests" (
                    id VARCHAR(36) NOT NULL PRIMARY KEY,
                    eventId INTEGER NOT NULL,
                    songName VARCHAR(256) NOT NULL,
                    artist VARCHAR(256) NOT NULL,
                    requesterName VARCHAR(128) NOT NULL DEFAULT 'Anonymous',
                    upvotes INTEGER NOT NULL DEFAULT 1,
                    requesterIdentity VARCHAR(64) NOT NULL DEFAULT '',
                    status VARCHAR(16) NOT NULL DEFAULT 'queued',
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    playedAt DATETIME
                );`,
				`CREATE TABLE "RequestUpvoters" (
                    requestId VARCHAR(36) NOT NULL,
                    identity VARCHAR(64) NOT NULL,
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                    PRIMARY KEY(requestId, identity)
                );`,
				`CREATE TABLE "Blocklist" (
                    id VARCHAR(36) NOT NULL PRIMARY KEY,
                    djId INTEGER NOT NULL,
                    pattern VARCHAR(256) NOT NULL,
                    createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
                );`,
				`CREATE INDEX idx_event_dj ON Events (djId ASC);`,
				`CREATE INDEX idx_request_event_status ON SongRequests (eventId ASC, status ASC);`,
				`CREATE INDEX idx_blocklist_dj ON Blocklist (djId ASC);`,
			},
		},
		{
			Version: 2,
			Queries: []string{
				// Rate limiting counts an identity's submissions within the trailing hour
				`CREATE INDEX idx_request_rate ON SongRequests (eventId ASC, requesterIdentity ASC, createdAt ASC);`,
			},
		},
		{
			Version: 3,
			Queries: []string{
				`ALTER TABLE Events ADD COLUMN venmoHandle VARCHAR(64) NOT NULL DEFAULT '';`,
				`ALTER TABLE Events ADD COLUMN coverImageUrl VARCHAR(1024) NOT NULL DEFAULT '';`,
				`ALTER TABLE Events ADD COLUMN instagramHandle VARCHAR(64) NOT NULL DEFAULT '';`,
				`ALTER TABLE Events ADD COLUMN websiteUrl VARCHAR(1024) NOT NULL DEFAULT '';`,
			},
		},
	}
}

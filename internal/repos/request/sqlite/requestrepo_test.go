package sqlite

import (
	"io/ioutil"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/turntable/internal/migrate"
	"github.com/derWhity/turntable/internal/repos"
)

func newMockRepo(t *testing.T) (*RequestRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	logger := logrus.New()
	logger.Out = ioutil.Discard
	return New(sqlx.NewDb(db, "sqlite3"), logrus.NewEntry(logger)), mock
}

func requestColumns() []string {
	return []string{
		"id", "eventId", "songName", "artist", "requesterName", "upvotes", "requesterIdentity",
		"status", "createdAt", "playedAt",
	}
}

func TestAddUpvote(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM SongRequests`).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`INSERT OR IGNORE INTO RequestUpvoters`).
		WithArgs("req-1", "203.0.113.7").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE SongRequests SET upvotes = upvotes \+ 1`).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, .+ FROM SongRequests WHERE id = \?`).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows(requestColumns()).
			AddRow("req-1", 1, "Blinding Lights", "The Weeknd", "Ada", 3, "198.51.100.2", "queued", time.Now(), nil))
	mock.ExpectCommit()

	req, err := repo.AddUpvote("req-1", "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, uint(3), req.Upvotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUpvoteAlreadyUpvoted(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM SongRequests`).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// The identity is already in the upvoter table, so the insert is a no-op
	mock.ExpectExec(`INSERT OR IGNORE INTO RequestUpvoters`).
		WithArgs("req-1", "203.0.113.7").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.AddUpvote("req-1", "203.0.113.7")
	assert.Equal(t, repos.ErrAlreadyUpvoted, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUpvoteMissingRequest(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM SongRequests`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := repo.AddUpvote("nope", "203.0.113.7")
	assert.Equal(t, repos.ErrEntityNotExisting, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusMissingRequest(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE SongRequests SET status = \?`).
		WithArgs("played", nil, "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus("nope", "played", nil)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountRecentByIdentity(t *testing.T) {
	repo, mock := newMockRepo(t)
	since := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

	// The bound value has to arrive as UTC text matching what datetime('now') writes
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM SongRequests WHERE eventId = \?`).
		WithArgs(1, "203.0.113.7", "2026-05-01 20:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	num, err := repo.CountRecentByIdentity(1, "203.0.113.7", since)
	require.NoError(t, err)
	assert.Equal(t, uint(4), num)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// newSqliteRepo sets up a repository on a real in-memory database with the full schema applied
func newSqliteRepo(t *testing.T) *RequestRepo {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logger := logrus.New()
	logger.Out = ioutil.Discard
	entry := logrus.NewEntry(logger)
	require.NoError(t, migrate.ExecuteMigrationsOnDb(db, entry))
	return New(db, entry)
}

func TestCountRecentByIdentityEastOfUTC(t *testing.T) {
	repo := newSqliteRepo(t)

	// Stored the same way Create stores it: as UTC text via datetime('now')
	_, err := repo.db.Exec(
		`INSERT INTO SongRequests(id, eventId, songName, artist, requesterName, upvotes, requesterIdentity,
            status, createdAt, playedAt)
         VALUES('req-1', 1, 'Blinding Lights', 'The Weeknd', 'Anonymous', 1, '203.0.113.7', 'queued',
            datetime('now'), NULL)`,
	)
	require.NoError(t, err)

	// A cutoff carrying a non-UTC zone must still see the fresh row inside the trailing hour
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	since := time.Now().In(tokyo).Add(-time.Hour)
	num, err := repo.CountRecentByIdentity(1, "203.0.113.7", since)
	require.NoError(t, err)
	assert.Equal(t, uint(1), num)

	// And a cutoff in the future must not
	num, err = repo.CountRecentByIdentity(1, "203.0.113.7", since.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint(0), num)
}

package inmem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/turntable/internal/repos"
)

func TestSessionLifecycle(t *testing.T) {
	repo := New()

	sess, err := repo.CreateFor(42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), sess.DJID)
	assert.Len(t, sess.ID, sessionIDLen)
	assert.False(t, sess.Expired())

	loaded, err := repo.GetByID(sess.ID, true)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, uint(42), loaded.DJID)

	require.NoError(t, repo.Delete(sess.ID))
	_, err = repo.GetByID(sess.ID, false)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
}

func TestGetByIDUnknownSession(t *testing.T) {
	repo := New()
	_, err := repo.GetByID("does-not-exist", false)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
}

func TestRandomString(t *testing.T) {
	a := RandomString(sessionIDLen)
	b := RandomString(sessionIDLen)
	assert.Len(t, a, sessionIDLen)
	assert.NotEqual(t, a, b)
	for _, c := range a {
		assert.True(t, strings.ContainsRune(letterBytes, c), "unexpected character %q", c)
	}
}

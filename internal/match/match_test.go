package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "blinding lights", Normalize("  Blinding   Lights "))
	assert.Equal(t, "the weeknd", Normalize("The\tWeeknd"))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Normalize(""))
}

func TestSongsEqual(t *testing.T) {
	assert.True(t, SongsEqual("Blinding Lights", " the weeknd ", "blinding lights", "The Weeknd"))
	assert.True(t, SongsEqual("MR. BRIGHTSIDE", "The  Killers", "Mr. Brightside", "the killers"))
	assert.False(t, SongsEqual("Blinding Lights", "The Weeknd", "Blinding Lights", "Dua Lipa"))
	assert.False(t, SongsEqual("One More Time", "Daft Punk", "One More Try", "Daft Punk"))
}

func TestMatchesBlockPattern(t *testing.T) {
	assert.True(t, MatchesBlockPattern("Baby Shark (Remix)", "baby shark"))
	assert.True(t, MatchesBlockPattern("BABY  SHARK", " Baby Shark "))
	assert.False(t, MatchesBlockPattern("Shark Tale Theme", "baby shark"))
	assert.False(t, MatchesBlockPattern("", "baby shark"))
	// An empty pattern matches everything - the service trims patterns before storing them,
	// so this is only a property of the matcher itself
	assert.True(t, MatchesBlockPattern("Anything", ""))
}

func TestSongKey(t *testing.T) {
	assert.Equal(t, SongKey("Blinding  Lights", "THE WEEKND"), SongKey("blinding lights", "The Weeknd"))
	assert.NotEqual(t, SongKey("Blinding Lights", "The Weeknd"), SongKey("Blinding", "Lights The Weeknd"))
}

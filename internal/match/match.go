// Package match contains the normalization and comparison helpers used to detect duplicate song
// requests and to filter submissions against a DJ's block list
package match

import "strings"

// Normalize prepares a string for comparison: lowercase, trimmed, with internal whitespace runs
// collapsed to a single space
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FuzzyMatch checks if two strings are equal after normalization
func FuzzyMatch(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// SongsEqual checks if two (song, artist) pairs refer to the same song.
// Both fields have to match after independent normalization
func SongsEqual(songA, artistA, songB, artistB string) bool {
	return FuzzyMatch(songA, songB) && FuzzyMatch(artistA, artistB)
}

// MatchesBlockPattern checks if a song name matches a block pattern.
// The pattern matches if it is contained in the song name after both have been normalized -
// no fuzzy tolerance beyond substring containment
func MatchesBlockPattern(songName, pattern string) bool {
	return strings.Contains(Normalize(songName), Normalize(pattern))
}

// SongKey returns a stable grouping key for a (song, artist) pair - used by the analytics
// rollups to group differently-spelled submissions of the same song
func SongKey(songName, artist string) string {
	return Normalize(songName) + "\x00" + Normalize(artist)
}

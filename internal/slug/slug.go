// Package slug generates the URL-safe public identifiers for events
package slug

import (
	"math/rand"
	"regexp"
	"strings"
)

const suffixLen = 6

var (
	nonWord     = regexp.MustCompile(`[^a-z0-9\-]+`)
	dashRuns    = regexp.MustCompile(`\-\-+`)
	suffixChars = []byte("abcdefghijklmnopqrstuvwxyz0123456789")
)

// Make converts a string into a URL-friendly slug
func Make(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Join(strings.Fields(s), "-")
	s = nonWord.ReplaceAllString(s, "")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ForEvent generates a slug for the given event name with a random suffix appended, so that
// two events with the same name get distinct public identifiers. The top-level rand functions
// serialize access to their source, so this is safe to call from concurrent handlers
func ForEvent(eventName string) string {
	suffix := make([]byte, suffixLen)
	for i := range suffix {
		suffix[i] = suffixChars[rand.Intn(len(suffixChars))]
	}
	base := Make(eventName)
	if base == "" {
		return string(suffix)
	}
	return base + "-" + string(suffix)
}

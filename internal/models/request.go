package models

import "time"

const (
	// RequestStatusQueued is the initial status of every submitted request
	RequestStatusQueued = "queued"
	// RequestStatusPinned marks a request the DJ wants to play next - pinning is not reversible
	RequestStatusPinned = "pinned"
	// RequestStatusPlayed is a terminal status - the song has been played on stage
	RequestStatusPlayed = "played"
	// RequestStatusSkipped is a terminal status - the DJ decided not to play the song
	RequestStatusSkipped = "skipped"
)

// A SongRequest describes a song requested by an attendee for a specific event
type SongRequest struct {
	// Internal ID of the request
	ID string `db:"id" json:"id"`
	// The event this request was submitted to
	EventID uint `db:"eventId" json:"eventId"`
	// Name of the requested song
	SongName string `db:"songName" json:"songName"`
	// Artist of the requested song
	Artist string `db:"artist" json:"artist"`
	// Display name the requester entered freely - defaults to "Anonymous"
	RequesterName string `db:"requesterName" json:"requesterName"`
	// Number of upvotes - always equals the number of rows in the upvoter table for this request.
	// The submitter counts as the first upvoter
	Upvotes uint `db:"upvotes" json:"upvotes"`
	// The resolved identity of the submitting client - used for rate limiting; not to be exported
	RequesterIdentity string `db:"requesterIdentity" json:"-"`
	// Current status of the request - see RequestStatus* constants
	Status string `db:"status" json:"status"`
	// Creation timestamp == timestamp of the submission
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Set once when the request transitions to played
	PlayedAt *time.Time `db:"playedAt" json:"playedAt,omitempty"`
	// The identities that have upvoted this request (including the submitter) - not to be exported
	Upvoters []string `db:"-" json:"-"`
}

// ValidRequestStatus checks if the given value is one of the four legal request statuses
func ValidRequestStatus(status string) bool {
	switch status {
	case RequestStatusQueued, RequestStatusPinned, RequestStatusPlayed, RequestStatusSkipped:
		return true
	}
	return false
}

// ValidStatusTransition checks if a request may move from one status to another.
// Played and skipped are terminal, and a pinned request cannot go back to queued
func ValidStatusTransition(from, to string) bool {
	switch from {
	case RequestStatusQueued:
		return to == RequestStatusPinned || to == RequestStatusPlayed || to == RequestStatusSkipped
	case RequestStatusPinned:
		return to == RequestStatusPlayed || to == RequestStatusSkipped
	}
	return false
}

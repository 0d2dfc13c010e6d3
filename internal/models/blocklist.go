package models

import "time"

// A BlockListEntry is a free-text pattern a DJ does not want to receive requests for.
// Entries are scoped to the DJ, not to a single event, and apply to all of their events
type BlockListEntry struct {
	// Internal ID of the entry
	ID string `db:"id" json:"id"`
	// The DJ owning this entry
	DJID uint `db:"djId" json:"djId"`
	// The pattern matched as a normalized substring against incoming song names
	Pattern string `db:"pattern" json:"pattern"`
	// Creation timestamp of the entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
}

package models

import (
	"fmt"
	"time"

	scrypt "github.com/elithrar/simple-scrypt"
)

// DJ defines an account that owns events and block list entries.
// There is only a single role - every authenticated DJ may manage their own data
type DJ struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// The e-mail address used to log in - unique
	Email string `db:"email" json:"email"`
	// The hashed password for authentication
	PasswordHash string `db:"passwordHash" json:"-"`
	// Display name
	Name string `db:"name" json:"name"`
	// Optional payout handle used as default for new events
	VenmoHandle string `db:"venmoHandle" json:"venmoHandle,omitempty"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
}

// SetPassword sets a new password creating a password hash from the incoming password and storing it in the DJ's
// PasswordHash property
func (d *DJ) SetPassword(pass string) error {
	hash, err := scrypt.GenerateFromPassword([]byte(pass), scrypt.DefaultParams)
	if err != nil {
		return fmt.Errorf("SetPassword: Error during password hashing: %v", err)
	}
	// The library already uses a string encoding here - so there is no need to encode further
	d.PasswordHash = string(hash)
	return nil
}

// CheckPassword checks if the given password corresponds to the hash stored in the DJ struct.
// It returns an error if the password does not match or an error occurs when loading the password hash
func (d *DJ) CheckPassword(pass string) error {
	return scrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(pass))
}

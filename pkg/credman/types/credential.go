// Package types defines the records persisted by the credman package.
package types

import "time"

// Credential is a stored forum login. Secret holds the encrypted password
// when the record lives in the fallback file.
type Credential struct {
	// User is the forum user name and the record's key.
	User string
	// Secret is the AES-GCM sealed password.
	Secret []byte
	// SavedAt is when the password was last stored.
	SavedAt time.Time
}

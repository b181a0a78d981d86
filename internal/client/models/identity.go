// Package models defines the client-side authentication records.
package models

import "github.com/dmitrijs2005/pinsession/internal/client/identifier"

// Identity is an authenticated account as reported by a backend.
type Identity struct {
	// UID is the backend's account id. Empty for the local fallback backend.
	UID string

	// Identifier is the synthetic account identifier derived from the username.
	Identifier identifier.AccountIdentifier

	// DisplayName preserves the username's original casing when the backend has one.
	DisplayName string
}

// Username returns the display name, or the username derived from the
// identifier when no display name is set.
func (i *Identity) Username() string {
	return identifier.DisplayUsername(i.DisplayName, i.Identifier)
}

// Equal reports whether two identities describe the same account state.
// Nil only equals nil.
func (i *Identity) Equal(o *Identity) bool {
	if i == nil || o == nil {
		return i == o
	}
	return *i == *o
}

// Package identifier maps local usernames to the account identifiers the
// remote identity service expects, and back.
package identifier

import "strings"

// Domain is the reserved suffix of every synthetic account identifier. It is
// never shown to or typed by end users.
const Domain = "databhandaar.local"

const separator = "@"

// AccountIdentifier is the backend-facing key of an account.
type AccountIdentifier string

func (a AccountIdentifier) String() string { return string(a) }

// ToAccountIdentifier lower-cases username and appends the reserved domain.
// Usernames differing only by case map to the same identifier.
func ToAccountIdentifier(username string) AccountIdentifier {
	return AccountIdentifier(strings.ToLower(username) + separator + Domain)
}

// ToUsername returns the part of id before the domain separator. The result
// is lower-case; prefer a display name when the backend provides one.
func ToUsername(id AccountIdentifier) string {
	name, _, _ := strings.Cut(string(id), separator)
	return name
}

// DisplayUsername picks the display name when set and falls back to the
// username derived from id.
func DisplayUsername(displayName string, id AccountIdentifier) string {
	if displayName != "" {
		return displayName
	}
	return ToUsername(id)
}

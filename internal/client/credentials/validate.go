// Package credentials checks the syntax of usernames and PINs.
package credentials

import "regexp"

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	pinPattern      = regexp.MustCompile(`^[0-9]{4}$`)
)

// ValidUsername reports whether username is 3-20 ASCII letters, digits or
// underscores.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidPin reports whether pin is exactly four decimal digits.
func ValidPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

// Validate reports whether both username and pin are well formed. Inputs are
// expected to be trimmed by the caller; surrounding whitespace fails.
func Validate(username, pin string) bool {
	return ValidUsername(username) && ValidPin(pin)
}

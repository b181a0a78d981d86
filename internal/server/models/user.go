package models

import "time"

// User is an identity service account. Identifier is stored lower-cased so
// lookups collide case-insensitively; DisplayName keeps the original casing.
type User struct {
	ID             string
	Identifier     string
	DisplayName    string
	Salt           []byte
	Verifier       []byte
	FailedAttempts int
	LockedUntil    time.Time
	CreatedAt      time.Time
}

// Locked reports whether sign-in is refused at now.
func (u *User) Locked(now time.Time) bool {
	return !u.LockedUntil.IsZero() && now.Before(u.LockedUntil)
}

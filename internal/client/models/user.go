package models

// LocalUserRecord is one entry of the fallback user table. PinHash is an
// opaque verifier produced by cryptox.HashPin, never the PIN itself.
type LocalUserRecord struct {
	Username string `json:"username"`
	PinHash  string `json:"pinHash"`
}

package models

import "time"

// Provider names the backend a Session was created by.
type Provider string

const (
	ProviderRemote Provider = "remote"
	ProviderLocal  Provider = "local"
)

// Session is the on-device record of the currently authenticated identity.
// Its JSON form is stored verbatim under the "session" key; renaming fields
// breaks existing devices.
type Session struct {
	Username   string    `json:"username"`
	Identifier string    `json:"identifier,omitempty"`
	BackendUID *string   `json:"uid"`
	LoginTime  time.Time `json:"loginTime"`
	Provider   Provider  `json:"provider"`
}

// NewSession builds a Session for identity authenticated by provider at now.
// Local sessions carry no backend uid.
func NewSession(identity *Identity, provider Provider, now time.Time) *Session {
	s := &Session{
		Username:   identity.Username(),
		Identifier: identity.Identifier.String(),
		LoginTime:  now.UTC(),
		Provider:   provider,
	}
	if provider == ProviderRemote && identity.UID != "" {
		uid := identity.UID
		s.BackendUID = &uid
	}
	return s
}

// Clone returns a deep copy; nil stays nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.BackendUID != nil {
		uid := *s.BackendUID
		c.BackendUID = &uid
	}
	return &c
}

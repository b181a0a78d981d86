package sessionstore

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/pinsession/internal/client/models"
)

// userPair is one element of the local_users list, encoded as a two-element
// JSON array: ["bob", {"username":"bob","pinHash":"..."}].
type userPair struct {
	Username string
	Record   models.LocalUserRecord
}

func (p userPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Username, p.Record})
}

func (p *userPair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("user pair: want 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Username); err != nil {
		return fmt.Errorf("user pair name: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Record); err != nil {
		return fmt.Errorf("user pair record: %w", err)
	}
	if p.Record.Username == "" {
		p.Record.Username = p.Username
	}
	return nil
}

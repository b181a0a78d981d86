// Package watch fans identity changes out to WatchIdentity streams.
package watch

import (
	"sync"

	"github.com/dmitrijs2005/pinsession/internal/server/models"
	"github.com/google/uuid"
)

// Event is one identity change. A nil User means the account signed out.
type Event struct {
	User *models.User
}

// Hub keeps the watchers of every account. Each watcher holds at most one
// undelivered event; a newer event replaces it, so a slow stream always
// catches up to the latest state.
type Hub struct {
	mu       sync.Mutex
	watchers map[string]map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[string]chan Event)}
}

// Subscribe registers a watcher for userID. The returned cancel removes it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, 1)

	h.mu.Lock()
	ws, ok := h.watchers[userID]
	if !ok {
		ws = make(map[string]chan Event)
		h.watchers[userID] = ws
	}
	ws[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(ws, id)
			if len(ws) == 0 {
				delete(h.watchers, userID)
			}
			close(ch)
		})
	}
}

// Publish delivers ev to every watcher of userID without blocking.
func (h *Hub) Publish(userID string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.watchers[userID] {
		select {
		case ch <- ev:
		default:
			// drop the stale pending event, then the send cannot block
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// Watchers returns how many streams watch userID.
func (h *Hub) Watchers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[userID])
}

package reconciler

import (
	"context"

	"github.com/dmitrijs2005/pinsession/internal/client/models"
	"github.com/dmitrijs2005/pinsession/internal/common"
)

// message is one session mutation applied by the actor goroutine.
type message interface {
	apply(ctx context.Context, r *Reconciler)
}

// envelope lets submit wait until msg has been applied.
type envelope struct {
	msg     message
	applied chan struct{}
}

// identityChanged is pushed by the remote client. A nil identity means
// signed out.
type identityChanged struct {
	identity *models.Identity
}

// sessionAuthenticated follows a successful explicit login or sign-up.
type sessionAuthenticated struct {
	session *models.Session
}

// sessionCleared follows a logout or arrival at the login surface.
type sessionCleared struct {
	reason       string
	loginSurface bool
}

func (r *Reconciler) run(inbox <-chan message, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ctx := context.Background()

	for {
		select {
		case m := <-inbox:
			m.apply(ctx, r)
		case <-done:
			return
		}
	}
}

func (e *envelope) apply(ctx context.Context, r *Reconciler) {
	defer close(e.applied)
	e.msg.apply(ctx, r)
}

// submit hands m to the actor and waits until it has been applied.
func (r *Reconciler) submit(ctx context.Context, m message) error {
	r.mu.RLock()
	running, inbox, done := r.running, r.inbox, r.done
	r.mu.RUnlock()

	if !running {
		return common.ErrNotInitialized
	}

	env := &envelope{msg: m, applied: make(chan struct{})}
	select {
	case inbox <- env:
	case <-done:
		return common.ErrNotInitialized
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-env.applied:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onStateChange is the remote client's subscriber. It does not wait for the
// message to be applied.
func (r *Reconciler) onStateChange(identity *models.Identity) {
	r.mu.RLock()
	inbox, done := r.inbox, r.done
	r.mu.RUnlock()

	select {
	case inbox <- &identityChanged{identity: identity}:
	case <-done:
	}
}

func (m *identityChanged) apply(ctx context.Context, r *Reconciler) {
	r.mu.Lock()
	r.live = m.identity
	close(r.changed)
	r.changed = make(chan struct{})
	skip := r.onLoginSurface
	cached := r.session
	r.mu.Unlock()

	if m.identity == nil {
		r.logger.Info(ctx, "remote identity signed out")
		if skip || cached == nil {
			return
		}
		r.mu.Lock()
		r.session = nil
		r.mu.Unlock()
		if err := r.store.ClearSession(ctx); err != nil {
			r.logger.Error(ctx, "session not cleared from storage", "reason", "remote sign-out", "error", err)
		}
		return
	}

	username := m.identity.Username()
	if skip {
		r.logger.Debug(ctx, "identity change not persisted on login surface", "username", username)
		return
	}
	if cached != nil && cached.Username != username {
		r.logger.Warn(ctx, "remote identity replaces session", "session_username", cached.Username, "remote_username", username)
	}

	r.persist(ctx, models.NewSession(m.identity, models.ProviderRemote, r.now()))
}

func (m *sessionAuthenticated) apply(ctx context.Context, r *Reconciler) {
	r.mu.Lock()
	r.onLoginSurface = false
	live := r.live
	r.mu.Unlock()

	if live != nil && live.Username() != m.session.Username {
		r.logger.Warn(ctx, "login replaces remote identity", "remote_username", live.Username(), "session_username", m.session.Username)
	}

	r.persist(ctx, m.session)
}

func (m *sessionCleared) apply(ctx context.Context, r *Reconciler) {
	r.mu.Lock()
	r.session = nil
	if m.loginSurface {
		r.onLoginSurface = true
	}
	r.mu.Unlock()

	if err := r.store.ClearSession(ctx); err != nil {
		r.logger.Error(ctx, "session not cleared from storage", "reason", m.reason, "error", err)
		return
	}
	r.logger.Info(ctx, "session cleared", "reason", m.reason)
}

// persist caches session in memory and writes it through. A failed write is
// logged; the in-memory session stays valid for this process.
func (r *Reconciler) persist(ctx context.Context, session *models.Session) {
	r.mu.Lock()
	r.session = session
	r.mu.Unlock()

	if err := r.store.PersistSession(ctx, session); err != nil {
		r.logger.Error(ctx, "session not persisted", "username", session.Username, "error", err)
		return
	}
	r.logger.Info(ctx, "session persisted", "username", session.Username, "provider", string(session.Provider))
}

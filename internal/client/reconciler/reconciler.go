package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/client/client"
	"github.com/dmitrijs2005/pinsession/internal/client/credentials"
	"github.com/dmitrijs2005/pinsession/internal/client/identifier"
	"github.com/dmitrijs2005/pinsession/internal/client/models"
	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/logging"
)

// SessionStore is the on-device store the reconciler drives.
type SessionStore interface {
	LoadUsers(ctx context.Context) error
	Register(ctx context.Context, username, pin string) (*models.Identity, error)
	Authenticate(ctx context.Context, username, pin string) (*models.Identity, error)
	PersistSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context) error
	ReadSession(ctx context.Context) (*models.Session, error)
	ReadCurrentUsername(ctx context.Context) (string, error)
}

// ClientFactory builds the remote client probed by Init.
type ClientFactory func() (client.Client, error)

type Config struct {
	// RemoteEnabled false skips the probe and starts in ModeFallback.
	RemoteEnabled bool

	// ProbeTimeout bounds the Ping made by Init.
	ProbeTimeout time.Duration

	// InitGracePeriod is how long RequireSession waits for the remote
	// service to report an identity before giving up.
	InitGracePeriod time.Duration
}

type Reconciler struct {
	cfg       Config
	newClient ClientFactory
	store     SessionStore
	logger    logging.Logger
	now       func() time.Time

	// lifeMu serializes Init and Shutdown.
	lifeMu      sync.Mutex
	unsubscribe func()

	mu             sync.RWMutex
	remote         client.Client
	inbox          chan message
	done           chan struct{}
	stopped        chan struct{}
	mode           Mode
	running        bool
	session        *models.Session
	live           *models.Identity
	onLoginSurface bool
	// changed is closed and replaced whenever live changes.
	changed chan struct{}
}

func New(cfg Config, newClient ClientFactory, store SessionStore, logger logging.Logger) *Reconciler {
	return &Reconciler{
		cfg:       cfg,
		newClient: newClient,
		store:     store,
		logger:    logger.With("module", "reconciler"),
		now:       time.Now,
		changed:   make(chan struct{}),
	}
}

// Init probes the remote service, loads cached state and starts the actor.
// Calling Init on a running Reconciler is a no-op.
func (r *Reconciler) Init(ctx context.Context) error {
	r.lifeMu.Lock()
	defer r.lifeMu.Unlock()

	if r.isRunning() {
		return nil
	}

	mode, remote := r.probe(ctx)
	if mode == ModeFallback {
		if err := r.store.LoadUsers(ctx); err != nil {
			r.logger.Error(ctx, "local users not loaded", "error", err)
		}
	}

	session, err := r.store.ReadSession(ctx)
	if err != nil {
		username, _ := r.store.ReadCurrentUsername(ctx)
		r.logger.Warn(ctx, "stored session ignored", "username", username, "error", err)
		session = nil
	}

	inbox, done, stopped := make(chan message), make(chan struct{}), make(chan struct{})

	r.mu.Lock()
	r.remote = remote
	r.inbox, r.done, r.stopped = inbox, done, stopped
	r.mode = mode
	r.running = true
	r.session = session
	r.live = nil
	r.onLoginSurface = false
	r.mu.Unlock()

	go r.run(inbox, done, stopped)

	if remote != nil {
		rctx, cancel := r.probeContext(ctx)
		if err := remote.Restore(rctx); err != nil {
			r.logger.Warn(ctx, "remote sign-in not restored", "error", err)
		}
		cancel()
		r.unsubscribe = remote.Subscribe(r.onStateChange)
	}

	r.logger.Info(ctx, "session reconciler started", "mode", mode.String(), "cached_session", session != nil)
	return nil
}

// probe picks the backend. Every failure yields ModeFallback and a nil
// client.
func (r *Reconciler) probe(ctx context.Context) (Mode, client.Client) {
	if !r.cfg.RemoteEnabled || r.newClient == nil {
		r.logger.Info(ctx, "remote identity service disabled")
		return ModeFallback, nil
	}

	c, err := r.newClient()
	if err != nil {
		r.logger.Warn(ctx, "remote identity service unavailable", "error", err)
		return ModeFallback, nil
	}

	pctx, cancel := r.probeContext(ctx)
	defer cancel()

	if err := c.Ping(pctx); err != nil {
		r.logger.Warn(ctx, "remote identity service unavailable", "error", err)
		if cerr := c.Close(); cerr != nil {
			r.logger.Debug(ctx, "closing probed client", "error", cerr)
		}
		return ModeFallback, nil
	}
	return ModeRemote, c
}

func (r *Reconciler) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.ProbeTimeout > 0 {
		return context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	}
	return context.WithCancel(ctx)
}

// Shutdown stops the actor and releases the remote client. It waits for an
// in-flight message to finish unless ctx ends first.
func (r *Reconciler) Shutdown(ctx context.Context) error {
	r.lifeMu.Lock()
	defer r.lifeMu.Unlock()

	if !r.isRunning() {
		return nil
	}

	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}

	r.mu.Lock()
	r.running = false
	remote, done, stopped := r.remote, r.done, r.stopped
	r.remote = nil
	r.mu.Unlock()
	close(done)

	var err error
	select {
	case <-stopped:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if remote != nil {
		if cerr := remote.Close(); cerr != nil {
			r.logger.Warn(ctx, "closing remote client", "error", cerr)
		}
	}
	r.logger.Info(ctx, "session reconciler stopped")
	return err
}

func (r *Reconciler) isRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Mode returns the backend selected by Init.
func (r *Reconciler) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// State reports whether an identity is authenticated right now.
func (r *Reconciler) State() State {
	if r.CurrentSession() != nil {
		return StateAuthenticated
	}
	return StateUnauthenticated
}

// Login authenticates against the active backend and records the session.
// Failures are returned classified and leave stored state untouched.
func (r *Reconciler) Login(ctx context.Context, username, pin string) (*models.Session, error) {
	if !credentials.Validate(username, pin) {
		return nil, common.ErrInvalidInput
	}

	remote, mode, err := r.backend()
	if err != nil {
		return nil, err
	}

	var identity *models.Identity
	if mode == ModeRemote {
		identity, err = remote.SignIn(ctx, identifier.ToAccountIdentifier(username), pin)
	} else {
		identity, err = r.store.Authenticate(ctx, username, pin)
	}
	if err != nil {
		r.logger.Info(ctx, "login failed", "username", username, "kind", string(common.KindOf(err)))
		return nil, classify(err)
	}

	return r.authenticated(ctx, identity, mode)
}

// Signup creates the account on the active backend and records the session.
// Input format and PIN confirmation are checked before any backend call.
func (r *Reconciler) Signup(ctx context.Context, username, pin, confirmPin string) (*models.Session, error) {
	if !credentials.Validate(username, pin) {
		return nil, common.ErrInvalidInput
	}
	if pin != confirmPin {
		return nil, common.ErrPinMismatch
	}

	remote, mode, err := r.backend()
	if err != nil {
		return nil, err
	}

	var identity *models.Identity
	if mode == ModeRemote {
		identity, err = remote.SignUp(ctx, identifier.ToAccountIdentifier(username), pin, username)
	} else {
		identity, err = r.store.Register(ctx, username, pin)
	}
	if err != nil {
		r.logger.Info(ctx, "signup failed", "username", username, "kind", string(common.KindOf(err)))
		return nil, classify(err)
	}

	return r.authenticated(ctx, identity, mode)
}

func (r *Reconciler) authenticated(ctx context.Context, identity *models.Identity, mode Mode) (*models.Session, error) {
	provider := models.ProviderLocal
	if mode == ModeRemote {
		provider = models.ProviderRemote
	}
	session := models.NewSession(identity, provider, r.now())

	if err := r.submit(ctx, &sessionAuthenticated{session: session}); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// Logout signs out remotely on a best-effort basis, then clears the local
// session whatever the remote outcome was.
func (r *Reconciler) Logout(ctx context.Context) error {
	remote, mode, err := r.backend()
	if err != nil {
		return err
	}

	if mode == ModeRemote {
		if err := remote.SignOut(ctx); err != nil {
			r.logger.Warn(ctx, "remote sign-out failed", "error", err)
		}
	}

	return r.submit(ctx, &sessionCleared{reason: "logout"})
}

// EnterLoginSurface clears any session before the login form is shown.
// Until the next successful Login or Signup, identity changes pushed by the
// remote service are tracked but not written to the session.
func (r *Reconciler) EnterLoginSurface(ctx context.Context) error {
	return r.submit(ctx, &sessionCleared{reason: "login surface", loginSurface: true})
}

// RequireSession guards protected surfaces. In ModeRemote with no live
// identity yet it waits up to InitGracePeriod for one. It fails with
// common.ErrNoSession when nobody is authenticated.
func (r *Reconciler) RequireSession(ctx context.Context) (*models.Session, error) {
	if !r.isRunning() {
		return nil, common.ErrNotInitialized
	}

	if r.Mode() != ModeRemote {
		if s := r.CurrentSession(); s != nil {
			return s, nil
		}
		return nil, common.ErrNoSession
	}

	timer := time.NewTimer(r.cfg.InitGracePeriod)
	defer timer.Stop()

	for {
		r.mu.RLock()
		live, changed := r.live, r.changed
		r.mu.RUnlock()

		if live != nil {
			if s := r.CurrentSession(); s != nil {
				return s, nil
			}
			return nil, common.ErrNoSession
		}

		select {
		case <-changed:
		case <-timer.C:
			r.logger.Debug(ctx, "no remote identity after grace period")
			return nil, common.ErrNoSession
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// CurrentSession returns a copy of the current session or nil. In ModeRemote
// a live identity takes precedence over the stored record, except while the
// login surface is active.
func (r *Reconciler) CurrentSession() *models.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.mode == ModeRemote && r.live != nil && !r.onLoginSurface {
		if r.session != nil && r.session.Username == r.live.Username() {
			return r.session.Clone()
		}
		return models.NewSession(r.live, models.ProviderRemote, r.now())
	}
	return r.session.Clone()
}

// CurrentUser returns the authenticated username or "".
func (r *Reconciler) CurrentUser() string {
	if s := r.CurrentSession(); s != nil {
		return s.Username
	}
	return ""
}

func (r *Reconciler) backend() (client.Client, Mode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running {
		return nil, ModeUninitialized, common.ErrNotInitialized
	}
	return r.remote, r.mode, nil
}

// classify makes sure backend errors belong to the taxonomy.
func classify(err error) error {
	if common.Classified(err) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrUnknown, err)
}

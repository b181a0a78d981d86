package reconciler

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/pinsession/internal/client/client"
	"github.com/dmitrijs2005/pinsession/internal/client/identifier"
	"github.com/dmitrijs2005/pinsession/internal/client/models"
	"github.com/dmitrijs2005/pinsession/internal/common"
)

type fakeClient struct {
	mu sync.Mutex

	pingErr    error
	signInErr  error
	signUpErr  error
	signOutErr error
	// signInName is the display name returned by SignIn.
	signInName string
	// restored is the identity Restore resumes, if any.
	restored   *models.Identity
	restoreErr error

	calls       []string
	displayName string
	closed      bool
	sub         func(*models.Identity)
	current     *models.Identity
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) SignIn(_ context.Context, id identifier.AccountIdentifier, _ string) (*models.Identity, error) {
	f.record("SignIn")
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &models.Identity{UID: "uid-" + identifier.ToUsername(id), Identifier: id, DisplayName: f.signInName}, nil
}

func (f *fakeClient) SignUp(_ context.Context, id identifier.AccountIdentifier, _ string, displayName string) (*models.Identity, error) {
	f.record("SignUp")
	f.mu.Lock()
	f.displayName = displayName
	f.mu.Unlock()
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.Identity{UID: "uid-new", Identifier: id, DisplayName: displayName}, nil
}

func (f *fakeClient) SignOut(context.Context) error {
	f.record("SignOut")
	return f.signOutErr
}

func (f *fakeClient) Restore(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.restoreErr != nil {
		return f.restoreErr
	}
	f.current = f.restored
	return nil
}

func (f *fakeClient) Subscribe(fn func(*models.Identity)) func() {
	f.mu.Lock()
	f.sub = fn
	current := f.current
	f.mu.Unlock()
	fn(current)
	return func() {
		f.mu.Lock()
		f.sub = nil
		f.mu.Unlock()
	}
}

// push delivers an identity change the way the remote client would.
func (f *fakeClient) push(id *models.Identity) {
	f.mu.Lock()
	fn := f.sub
	f.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

func (f *fakeClient) Ping(context.Context) error {
	f.record("Ping")
	return f.pingErr
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeStore struct {
	mu sync.Mutex

	users   map[string]string
	session *models.Session

	loadErr    error
	persistErr error
	clearErr   error
	readErr    error

	loads    int
	persists int
	clears   int
	authn    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]string{}}
}

func (s *fakeStore) LoadUsers(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.loadErr
}

func (s *fakeStore) Register(_ context.Context, username, pin string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, common.ErrDuplicateAccount
	}
	s.users[username] = pin
	return &models.Identity{Identifier: identifier.ToAccountIdentifier(username), DisplayName: username}, nil
}

func (s *fakeStore) Authenticate(_ context.Context, username, pin string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authn++
	stored, ok := s.users[username]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	if stored != pin {
		return nil, common.ErrWrongCredential
	}
	return &models.Identity{Identifier: identifier.ToAccountIdentifier(username), DisplayName: username}, nil
}

func (s *fakeStore) PersistSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists++
	if s.persistErr != nil {
		return s.persistErr
	}
	s.session = session.Clone()
	return nil
}

func (s *fakeStore) ClearSession(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.session = nil
	return nil
}

func (s *fakeStore) ReadSession(context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.session.Clone(), nil
}

func (s *fakeStore) ReadCurrentUsername(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", s.readErr
	}
	if s.session == nil {
		return "", nil
	}
	return s.session.Username, nil
}

func (s *fakeStore) stored() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

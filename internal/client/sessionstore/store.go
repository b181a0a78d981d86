// Package sessionstore owns the device-resident session record and the
// fallback user table, both kept in the metadata key/value store.
package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pinsession/internal/client/identifier"
	"github.com/dmitrijs2005/pinsession/internal/client/models"
	"github.com/dmitrijs2005/pinsession/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/cryptox"
	"github.com/dmitrijs2005/pinsession/internal/dbx"
	"github.com/dmitrijs2005/pinsession/internal/logging"
)

// Storage keys. Their names and value formats are shared with existing
// devices and must not change. KeyCurrentUser duplicates the session's
// username for readers that predate the session record.
const (
	KeySession     = "session"
	KeyCurrentUser = "current_user"
	KeyLocalUsers  = "local_users"

	KeyRemoteRefreshToken = "remote_refresh_token"
)

// ErrCorruptRecord wraps decode failures of stored values.
var ErrCorruptRecord = errors.New("corrupt stored record")

// RepoFactory binds a metadata repository to a DB handle or transaction.
type RepoFactory func(db dbx.DBTX) metadata.Repository

// Store is safe for concurrent use. The user table is held in memory after
// LoadUsers and written through on every Register.
type Store struct {
	db      *sql.DB
	newRepo RepoFactory
	logger  logging.Logger

	mu     sync.RWMutex
	users  map[string]models.LocalUserRecord
	order  []string
	loaded bool

	// hashPin is a seam for tests; argon2 is slow.
	hashPin func(pin string) string
}

func New(db *sql.DB, logger logging.Logger) *Store {
	return &Store{
		db:      db,
		newRepo: func(db dbx.DBTX) metadata.Repository { return metadata.NewSQLiteRepository(db) },
		logger:  logger.With("module", "sessionstore"),
		users:   map[string]models.LocalUserRecord{},
		hashPin: cryptox.HashPin,
	}
}

func (s *Store) repo() metadata.Repository {
	return s.newRepo(s.db)
}

// LoadUsers hydrates the in-memory user table from durable storage. Once a
// load succeeds later calls are no-ops.
func (s *Store) LoadUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// loadLocked requires s.mu to be held for writing.
func (s *Store) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	raw, found, err := s.repo().Get(ctx, KeyLocalUsers)
	if err != nil {
		return fmt.Errorf("load local users: %w", err)
	}

	users := map[string]models.LocalUserRecord{}
	var order []string
	if found {
		var pairs []userPair
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return fmt.Errorf("load local users: %w: %v", ErrCorruptRecord, err)
		}
		for _, p := range pairs {
			if _, dup := users[p.Username]; !dup {
				order = append(order, p.Username)
			}
			users[p.Username] = p.Record
		}
	}

	s.users, s.order, s.loaded = users, order, true
	s.logger.Debug(ctx, "local users loaded", "count", len(order))
	return nil
}

// ensureLoaded retries the load when an earlier one failed. The table is
// never read or written before it has been hydrated.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if err := s.loadLocked(ctx); err != nil {
		s.logger.Error(ctx, "local users unavailable", "error", err)
		return fmt.Errorf("%w: %v", common.ErrUnknown, err)
	}
	return nil
}

// Register adds username with a hash of pin. It fails with
// common.ErrDuplicateAccount when the username is taken. The in-memory table
// is left unchanged if the write fails.
func (s *Store) Register(ctx context.Context, username, pin string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if _, ok := s.users[username]; ok {
		return nil, common.ErrDuplicateAccount
	}

	rec := models.LocalUserRecord{Username: username, PinHash: s.hashPin(pin)}
	order := append(append([]string(nil), s.order...), username)

	users := make(map[string]models.LocalUserRecord, len(s.users)+1)
	for k, v := range s.users {
		users[k] = v
	}
	users[username] = rec

	if err := s.writeUsers(ctx, users, order); err != nil {
		return nil, err
	}
	s.users, s.order = users, order

	return localIdentity(username), nil
}

// Authenticate checks pin against the stored record of username.
func (s *Store) Authenticate(ctx context.Context, username, pin string) (*models.Identity, error) {
	s.mu.RLock()
	loaded := s.loaded
	rec, ok := s.users[username]
	s.mu.RUnlock()

	if !loaded {
		s.mu.Lock()
		err := s.ensureLoaded(ctx)
		rec, ok = s.users[username]
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	if !ok {
		return nil, common.ErrUserNotFound
	}

	match, err := cryptox.VerifyPin(rec.PinHash, pin)
	if err != nil {
		s.logger.Error(ctx, "unreadable pin record", "username", username, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrUnknown, err)
	}
	if !match {
		return nil, common.ErrWrongCredential
	}
	return localIdentity(username), nil
}

// PersistSession stores session and the current username atomically.
func (s *Store) PersistSession(ctx context.Context, session *models.Session) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.newRepo(tx)
		if err := r.Set(ctx, KeySession, b); err != nil {
			return err
		}
		return r.Set(ctx, KeyCurrentUser, []byte(session.Username))
	})
}

// ClearSession removes the session and the current username. Clearing an
// empty store succeeds.
func (s *Store) ClearSession(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.newRepo(tx).Delete(ctx, KeySession, KeyCurrentUser)
	})
}

// ReadSession returns the stored session, or nil when there is none.
func (s *Store) ReadSession(ctx context.Context) (*models.Session, error) {
	raw, found, err := s.repo().Get(ctx, KeySession)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !found {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("read session: %w: %v", ErrCorruptRecord, err)
	}
	return &session, nil
}

// ReadCurrentUsername returns the stored username, or "" when there is none.
func (s *Store) ReadCurrentUsername(ctx context.Context) (string, error) {
	raw, found, err := s.repo().Get(ctx, KeyCurrentUser)
	if err != nil {
		return "", fmt.Errorf("read current user: %w", err)
	}
	if !found {
		return "", nil
	}
	return string(raw), nil
}

// LoadRefreshToken returns the saved remote refresh token or "".
func (s *Store) LoadRefreshToken(ctx context.Context) (string, error) {
	raw, found, err := s.repo().Get(ctx, KeyRemoteRefreshToken)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if !found {
		return "", nil
	}
	return string(raw), nil
}

// SaveRefreshToken stores token, or deletes the saved one when token is "".
func (s *Store) SaveRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return s.repo().Delete(ctx, KeyRemoteRefreshToken)
	}
	return s.repo().Set(ctx, KeyRemoteRefreshToken, []byte(token))
}

func (s *Store) writeUsers(ctx context.Context, users map[string]models.LocalUserRecord, order []string) error {
	pairs := make([]userPair, 0, len(order))
	for _, name := range order {
		pairs = append(pairs, userPair{Username: name, Record: users[name]})
	}

	b, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("encode local users: %w", err)
	}
	if err := s.repo().Set(ctx, KeyLocalUsers, b); err != nil {
		return fmt.Errorf("save local users: %w", err)
	}
	return nil
}

func localIdentity(username string) *models.Identity {
	return &models.Identity{
		Identifier:  identifier.ToAccountIdentifier(username),
		DisplayName: username,
	}
}

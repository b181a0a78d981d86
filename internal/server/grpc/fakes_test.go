package grpc

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/server/models"
	"github.com/dmitrijs2005/pinsession/internal/server/services"
	"github.com/dmitrijs2005/pinsession/internal/server/watch"
)

const testSecret = "secret"

type fakeIdentity struct {
	mu    sync.Mutex
	users map[string]*models.User // by identifier
	hub   *watch.Hub

	signInErr  error
	refreshErr error
	signedOut  []string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]*models.User{}, hub: watch.NewHub()}
}

func (f *fakeIdentity) add(id, identifier string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: id, Identifier: identifier}
	f.users[identifier] = u
	return u
}

func (f *fakeIdentity) SignUp(_ context.Context, identifier, secret string) (*models.User, *services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[identifier]; ok {
		return nil, nil, common.ErrDuplicateAccount
	}
	u := &models.User{ID: "id-" + identifier, Identifier: identifier}
	f.users[identifier] = u
	return u, &services.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
}

func (f *fakeIdentity) SignIn(_ context.Context, identifier, secret string) (*models.User, *services.TokenPair, error) {
	if f.signInErr != nil {
		return nil, nil, f.signInErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[identifier]
	if !ok {
		return nil, nil, common.ErrUserNotFound
	}
	return u, &services.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
}

func (f *fakeIdentity) GetUser(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (f *fakeIdentity) UpdateDisplayName(_ context.Context, userID, displayName string) (*models.User, error) {
	f.mu.Lock()
	var found *models.User
	for _, u := range f.users {
		if u.ID == userID {
			u.DisplayName = displayName
			cp := *u
			found = &cp
		}
	}
	f.mu.Unlock()
	if found == nil {
		return nil, common.ErrUserNotFound
	}
	f.hub.Publish(userID, watch.Event{User: found})
	return found, nil
}

func (f *fakeIdentity) SignOut(_ context.Context, userID string) error {
	f.mu.Lock()
	f.signedOut = append(f.signedOut, userID)
	f.mu.Unlock()
	f.hub.Publish(userID, watch.Event{})
	return nil
}

func (f *fakeIdentity) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil
}

func (f *fakeIdentity) Watch(userID string) (<-chan watch.Event, func()) {
	return f.hub.Subscribe(userID)
}

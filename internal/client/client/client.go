package client

import (
	"context"

	"github.com/dmitrijs2005/pinsession/internal/client/identifier"
	"github.com/dmitrijs2005/pinsession/internal/client/models"
)

// Client is the remote identity backend as seen by the reconciler. Errors
// wrap one of the common taxonomy sentinels.
type Client interface {
	SignIn(ctx context.Context, id identifier.AccountIdentifier, pin string) (*models.Identity, error)

	// SignUp creates the account and then sets its display name. A failure of
	// the second step is logged; the account is still reported as created.
	SignUp(ctx context.Context, id identifier.AccountIdentifier, pin string, displayName string) (*models.Identity, error)

	// SignOut forgets local credentials even when the remote call fails.
	SignOut(ctx context.Context) error

	// Subscribe registers fn for identity changes. fn is called once right
	// away with the current identity (nil when signed out) and then on every
	// change, in order. Calls to fn are never concurrent.
	Subscribe(fn func(*models.Identity)) (unsubscribe func())

	// Restore resumes a sign-in saved by an earlier process and publishes
	// its identity. Without a saved sign-in it does nothing.
	Restore(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}

// TokenStore keeps the refresh token between runs. Saving "" forgets it.
type TokenStore interface {
	LoadRefreshToken(ctx context.Context) (string, error)
	SaveRefreshToken(ctx context.Context, token string) error
}

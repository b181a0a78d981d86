// Package refreshtokens stores the refresh tokens issued by the identity
// service.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, valid for validity from now.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound for an unknown token.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete revokes one token. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every token of userID and returns how many there were.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

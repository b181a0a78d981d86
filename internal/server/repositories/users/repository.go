// Package users is the account store of the identity service.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in ID and CreatedAt. A taken identifier
	// yields common.ErrDuplicateAccount.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateDisplayName(ctx context.Context, id string, displayName string) (*models.User, error)

	// RecordFailure counts a wrong secret. Reaching maxAttempts locks the
	// account until lockUntil and restarts the count.
	RecordFailure(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) error
	ResetFailures(ctx context.Context, id string) error
}

// Package services contains the identity service business logic: accounts,
// sign-in with lockout, access and refresh tokens, and identity change
// notifications.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/cryptox"
	"github.com/dmitrijs2005/pinsession/internal/dbx"
	"github.com/dmitrijs2005/pinsession/internal/logging"
	"github.com/dmitrijs2005/pinsession/internal/server/auth"
	"github.com/dmitrijs2005/pinsession/internal/server/config"
	"github.com/dmitrijs2005/pinsession/internal/server/models"
	"github.com/dmitrijs2005/pinsession/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pinsession/internal/server/watch"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type IdentityService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hub                          *watch.Hub
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	maxFailedAttempts            int
	lockoutDuration              time.Duration
	now                          func() time.Time
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, hub *watch.Hub, cfg *config.Config, logger logging.Logger) *IdentityService {
	return &IdentityService{
		db:                           db,
		repomanager:                  m,
		hub:                          hub,
		logger:                       logger.With("module", "identity_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		maxFailedAttempts:            cfg.MaxFailedAttempts,
		lockoutDuration:              cfg.LockoutDuration,
		now:                          time.Now,
	}
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// SignUp creates an account and signs it in. A taken identifier, in any
// letter case, yields common.ErrDuplicateAccount.
func (s *IdentityService) SignUp(ctx context.Context, identifier, secret string) (*models.User, *TokenPair, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" || secret == "" {
		return nil, nil, common.ErrInvalidInput
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	user := &models.User{
		Identifier: identifier,
		Salt:       salt,
		Verifier:   cryptox.DeriveVerifier([]byte(secret), salt),
	}

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		pair, err = s.generateTokenPair(ctx, user.ID, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) {
			return nil, nil, err
		}
		s.logger.Error(ctx, "sign-up failed", "error", err)
		return nil, nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "account created", "user_id", user.ID)
	return user, pair, nil
}

// SignIn checks secret against the stored verifier. After maxFailedAttempts
// consecutive wrong secrets the account is locked and every attempt yields
// common.ErrRateLimited until the lock expires.
func (s *IdentityService) SignIn(ctx context.Context, identifier, secret string) (*models.User, *TokenPair, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" || secret == "" {
		return nil, nil, common.ErrInvalidInput
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrUserNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, nil, common.ErrorInternal
	}

	now := s.now()
	if user.Locked(now) {
		return nil, nil, common.ErrRateLimited
	}

	if !cryptox.CheckVerifier(user.Verifier, []byte(secret), user.Salt) {
		if err := repo.RecordFailure(ctx, user.ID, s.maxFailedAttempts, now.Add(s.lockoutDuration)); err != nil {
			s.logger.Error(ctx, "failed attempt not recorded", "user_id", user.ID, "error", err)
		}
		return nil, nil, common.ErrWrongCredential
	}

	if user.FailedAttempts > 0 || !user.LockedUntil.IsZero() {
		if err := repo.ResetFailures(ctx, user.ID); err != nil {
			s.logger.Warn(ctx, "failed attempts not reset", "user_id", user.ID, "error", err)
		}
		user.FailedAttempts, user.LockedUntil = 0, time.Time{}
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// GetUser returns the account with userID.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// UpdateDisplayName stores the display name and notifies the account's
// watchers.
func (s *IdentityService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, common.ErrInvalidInput
	}

	user, err := s.repomanager.Users(s.db).UpdateDisplayName(ctx, userID, displayName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error updating display name: %w", err)
	}

	s.hub.Publish(userID, watch.Event{User: user})
	return user, nil
}

// SignOut revokes every refresh token of the account and tells its watchers
// it is signed out.
func (s *IdentityService) SignOut(ctx context.Context, userID string) error {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	s.logger.Info(ctx, "signed out", "user_id", userID, "revoked", n)

	s.hub.Publish(userID, watch.Event{})
	return nil
}

// Watch subscribes to identity changes of userID.
func (s *IdentityService) Watch(userID string) (<-chan watch.Event, func()) {
	return s.hub.Subscribe(userID)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Unknown tokens yield common.ErrInvalidToken and
// expired ones common.ErrRefreshTokenExpired.
func (s *IdentityService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *IdentityService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		s.logger.Error(ctx, "refresh token not stored", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

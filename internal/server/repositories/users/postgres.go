package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinsession/internal/common"
	"github.com/dmitrijs2005/pinsession/internal/dbx"
	"github.com/dmitrijs2005/pinsession/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

const userColumns = `id, identifier, display_name, salt, verifier, failed_attempts, locked_until, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// newID is a seam for tests.
var newID = uuid.NewString

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, identifier, display_name, salt, verifier)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	id := newID()
	err := r.db.QueryRowContext(ctx, query,
		id, user.Identifier, user.DisplayName, user.Salt, user.Verifier).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE identifier = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, id string, displayName string) (*models.User, error) {
	query := `UPDATE users SET display_name = $2 WHERE id = $1 RETURNING ` + userColumns
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, displayName))
}

func (r *PostgresRepository) RecordFailure(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) error {
	query :=
		`UPDATE users SET
		   locked_until = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		   failed_attempts = CASE WHEN failed_attempts + 1 >= $2 THEN 0 ELSE failed_attempts + 1 END
		 WHERE id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id, maxAttempts, lockUntil); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ResetFailures(ctx context.Context, id string) error {
	query := `UPDATE users SET failed_attempts = 0, locked_until = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var lockedUntil sql.NullTime

	err := row.Scan(&user.ID, &user.Identifier, &user.DisplayName, &user.Salt, &user.Verifier,
		&user.FailedAttempts, &lockedUntil, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lockedUntil.Valid {
		user.LockedUntil = lockedUntil.Time
	}
	return user, nil
}

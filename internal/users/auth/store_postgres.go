// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/sec"
)

// pgxQuerier is the subset of [pgxpool.Pool] the directory needs.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// # User Directory

// PostgresUserDirectory implements [UserDirectory] over the users.account table.
//
// # err Mapping
//
// pgx.ErrNoRows and zero-row updates surface as [apperr.NotFound]; every other
// storage failure is wrapped and returned as-is.
type PostgresUserDirectory struct {
	pool pgxQuerier
}

// NewPostgresUserDirectory creates a directory on top of a pgx pool.
func NewPostgresUserDirectory(pool pgxQuerier) *PostgresUserDirectory {
	return &PostgresUserDirectory{pool: pool}
}

/*
FindByIdentifier retrieves a live account by email or username.

Description: Soft-deleted rows are invisible. The identifier is compared verbatim;
case handling is the responsibility of the stored data.

Parameters:
  - context: context.Context
  - identifier: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserDirectory) FindByIdentifier(context context.Context, identifier string) (*User, error) {
	const query = `
		SELECT id, username, email, passwordhash, role, lastaccessat
		FROM users.account
		WHERE (email = $1 OR username = $1) AND deletedat IS NULL
		LIMIT 1`

	var (
		user       = &User{}
		role       string
		lastAccess *time.Time
	)

	err := repository.pool.QueryRow(context, query, identifier).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&lastAccess,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_directory_find_failed: %w", err)
	}

	user.Role = sec.UserRole(role)
	if lastAccess != nil {
		user.LastAccessAt = *lastAccess
	}

	return user, nil
}

// TouchLastAccess stamps lastaccessat on a live account.
func (repository *PostgresUserDirectory) TouchLastAccess(context context.Context, userID string, at time.Time) error {
	const query = `UPDATE users.account SET lastaccessat = $2 WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, userID, at.UTC())
	if err != nil {
		return fmt.Errorf("postgres_user_directory_touch_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// Ping checks database connectivity.
func (repository *PostgresUserDirectory) Ping(context context.Context) error {
	if err := repository.pool.Ping(context); err != nil {
		return fmt.Errorf("postgres_user_directory_ping_failed: %w", err)
	}
	return nil
}

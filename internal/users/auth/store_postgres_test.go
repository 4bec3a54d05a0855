// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/users/auth"
)

var accountColumns = []string{"id", "username", "email", "passwordhash", "role", "lastaccessat"}

/*
TestPostgresUserDirectory_FindByIdentifier covers hydration, absence and storage failures.
*/
func TestPostgresUserDirectory_FindByIdentifier(t *testing.T) {
	lastAccess := epoch.Add(-time.Hour)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *auth.User
		wantCode  string
		wantErr   bool
	}{
		{
			name: "found by email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(accountColumns).
					AddRow("u-1", "ana", "ana@aula.edu", "$2a$12$digest", "PROFESOR", &lastAccess)
				mock.ExpectQuery(`SELECT id, username, email, passwordhash, role, lastaccessat FROM users.account`).
					WithArgs("ana@aula.edu").
					WillReturnRows(rows)
			},
			want: &auth.User{
				ID:           "u-1",
				Username:     "ana",
				Email:        "ana@aula.edu",
				PasswordHash: "$2a$12$digest",
				Role:         sec.RoleTeacher,
				LastAccessAt: lastAccess,
			},
		},
		{
			name: "no rows",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, username, email, passwordhash, role, lastaccessat FROM users.account`).
					WithArgs("ana@aula.edu").
					WillReturnRows(pgxmock.NewRows(accountColumns))
			},
			wantErr:  true,
			wantCode: apperr.CodeNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, username, email, passwordhash, role, lastaccessat FROM users.account`).
					WithArgs("ana@aula.edu").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			directory := auth.NewPostgresUserDirectory(mock)
			got, err := directory.FindByIdentifier(context.Background(), "ana@aula.edu")

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantCode != "" {
					assert.True(t, apperr.HasCode(err, tt.wantCode))
				} else {
					assert.False(t, apperr.HasCode(err, apperr.CodeNotFound))
					assert.Contains(t, err.Error(), "connection refused")
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

/*
TestPostgresUserDirectory_TouchLastAccess covers the update and the zero-row case.
*/
func TestPostgresUserDirectory_TouchLastAccess(t *testing.T) {
	tests := []struct {
		name     string
		result   pgconn.CommandTag
		execErr  error
		wantCode string
		wantErr  bool
	}{
		{name: "updated", result: pgxmock.NewResult("UPDATE", 1)},
		{name: "unknown account", result: pgxmock.NewResult("UPDATE", 0), wantErr: true, wantCode: apperr.CodeNotFound},
		{name: "database error", execErr: errors.New("deadlock detected"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			expectation := mock.ExpectExec(`UPDATE users.account SET lastaccessat`).
				WithArgs("u-1", epoch)
			if tt.execErr != nil {
				expectation.WillReturnError(tt.execErr)
			} else {
				expectation.WillReturnResult(tt.result)
			}

			err = auth.NewPostgresUserDirectory(mock).TouchLastAccess(context.Background(), "u-1", epoch)

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantCode != "" {
					assert.True(t, apperr.HasCode(err, tt.wantCode))
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

/*
TestPostgresUserDirectory_Ping verifies that connectivity failures are wrapped.
*/
func TestPostgresUserDirectory_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))

	err = auth.NewPostgresUserDirectory(mock).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_user_directory_ping_failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

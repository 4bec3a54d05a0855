// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the login state machine of the school administration
platform and the role gates every mutating controller consults.

# Architecture

  - Service: login, logout, current principal and role predicates.
  - UserDirectory: external lookup of account records (MongoDB or PostgreSQL).
  - Handler: the HTTP delivery of the same operations under /api/v1/auth.

Session and lockout state live in [session.Store] and [throttle.Throttle]; this
package only orchestrates them.
*/
package auth

import (
	"time"

	"github.com/taibuivan/aula/internal/platform/sec"
)

// # Domain Entities

// User is the account record fetched from the [UserDirectory].
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.UserRole `json:"role"`
	LastAccessAt time.Time    `json:"last_access_at,omitzero"`
}

// # Field Identifiers

// Field names used in validation errors and JSON payloads.
const (
	FieldLogin       = "login"
	FieldPassword    = "password"
	FieldToken       = "token"
	FieldUserID      = "user_id"
	FieldUsername    = "username"
	FieldRole        = "role"
	FieldPermissions = "permissions"
	FieldExpiresIn   = "expires_in"
)

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec provides the security primitives of the authentication core.

It isolates password hashing, session token generation and the role capability
table from the orchestration logic in [auth.Service].

Architecture:

  - Hashing: bcrypt with a configurable work factor (12 by default).
  - Tokens: opaque random UUIDv4 strings, never derived from user data.
  - Roles: a declarative role -> permission table consumed by every role gate.
*/
package sec

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/aula/internal/platform/apperr"
)

// DefaultHashCost is the bcrypt work factor used by the reference configuration.
const DefaultHashCost = 12

// ErrInvalidInput is returned when a blank password is submitted for hashing.
var ErrInvalidInput = apperr.ValidationError("Password must not be empty")

// ErrPasswordTooLong is returned for passwords beyond bcrypt's 72-byte input limit.
var ErrPasswordTooLong = apperr.ValidationError("Password must not exceed 72 bytes")

// PasswordHasher produces and verifies salted one-way password digests.
//
// # Concurrency
//
// PasswordHasher holds no mutable state and is safe for concurrent use.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// A cost outside bcrypt's accepted range falls back to [DefaultHashCost].
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost reports the work factor applied to new digests.
func (hasher *PasswordHasher) Cost() int {
	return hasher.cost
}

/*
Hash derives a bcrypt digest from a plain-text password.

Description: Every call draws a fresh random salt, so hashing the same input twice
yields two different digests that both verify against it.

Parameters:
  - plainTextPassword: string

Returns:
  - string: Encoded bcrypt digest
  - error: [ErrInvalidInput] for blank input, [ErrPasswordTooLong] past 72 bytes, or hashing failures
*/
func (hasher *PasswordHasher) Hash(plainTextPassword string) (string, error) {
	if strings.TrimSpace(plainTextPassword) == "" {
		return "", ErrInvalidInput
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether the plain-text password matches the digest.
// It never fails loudly: blank input or a malformed digest simply yields false.
func (hasher *PasswordHasher) Verify(plainTextPassword, existingHash string) bool {
	if plainTextPassword == "" || existingHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserDirectory is the external collaborator that owns account records.
type UserDirectory interface {

	/*
		FindByIdentifier returns the account whose email or username equals identifier.

		Parameters:
		  - context: context.Context
		  - identifier: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound when no account matches, or retrieval failures
	*/
	FindByIdentifier(context context.Context, identifier string) (*User, error)

	/*
		TouchLastAccess records the instant of the account's latest successful login.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - at: time.Time

		Returns:
		  - error: apperr.NotFound for an unknown account, or persistence failures
	*/
	TouchLastAccess(context context.Context, userID string, at time.Time) error

	// Ping reports whether the backing store is reachable.
	Ping(context context.Context) error
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// DirectoryTimeout bounds a single user directory call made during login.
	DirectoryTimeout = 5 * time.Second

	// MessageInvalidCredentials is returned for every failed login, whatever the cause.
	MessageInvalidCredentials = "Invalid login credentials"
)

// # Login Outcomes

// Outcome labels reported to the [Observer] for each login attempt.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeLocked  = "locked"
	OutcomeError   = "error"
)

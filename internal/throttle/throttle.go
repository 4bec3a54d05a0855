// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package throttle tracks failed login attempts per identifier and enforces a
temporary lockout once too many accumulate.

Lifecycle of a record:

  - Created on the first failure for an identifier.
  - Stamped with a lockout start when the failure count reaches the maximum.
  - Discarded entirely once the lockout window elapses, or on [Throttle.Clear].

# Concurrency

Every operation, including the stale-lockout eviction in [Throttle.IsLocked],
runs under a single mutex owned by the [Throttle] instance.
*/
package throttle

import (
	"sync"
	"time"

	"github.com/taibuivan/aula/internal/platform/clock"
)

// Reference configuration.
const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
)

// record is the accumulated failure state of one identifier.
type record struct {
	failures     int
	lockoutStart time.Time
}

func (r *record) locked() bool {
	return !r.lockoutStart.IsZero()
}

// Throttle is the in-memory identifier -> attempt record table.
type Throttle struct {
	mu              sync.Mutex
	records         map[string]*record
	maxAttempts     int
	lockoutDuration time.Duration
	clock           clock.Clock
}

// New constructs an empty [Throttle]. Non-positive limits select the defaults.
func New(maxAttempts int, lockoutDuration time.Duration, clk clock.Clock) *Throttle {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockoutDuration <= 0 {
		lockoutDuration = DefaultLockoutDuration
	}
	return &Throttle{
		records:         make(map[string]*record),
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		clock:           clk,
	}
}

// MaxAttempts reports the failure count that engages a lockout.
func (throttle *Throttle) MaxAttempts() int {
	return throttle.maxAttempts
}

// LockoutDuration reports how long a lockout lasts.
func (throttle *Throttle) LockoutDuration() time.Duration {
	return throttle.lockoutDuration
}

/*
RecordFailure counts a failed login attempt for the identifier.

Description: Creates the record on first use. When the count reaches the
configured maximum the lockout window starts.

Parameters:
  - identifier: string

Returns:
  - bool: true if the identifier is locked after this failure
*/
func (throttle *Throttle) RecordFailure(identifier string) bool {
	if identifier == "" {
		return false
	}

	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	now := throttle.clock.Now()
	current := throttle.liveLocked(identifier, now)
	if current == nil {
		current = &record{}
		throttle.records[identifier] = current
	}

	current.failures++
	if current.failures >= throttle.maxAttempts && !current.locked() {
		current.lockoutStart = now
	}
	return current.locked()
}

// IsLocked reports whether the identifier is inside an active lockout window.
// A lockout that has run its course is discarded together with its history.
func (throttle *Throttle) IsLocked(identifier string) bool {
	if identifier == "" {
		return false
	}

	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	current := throttle.liveLocked(identifier, throttle.clock.Now())
	return current != nil && current.locked()
}

// Clear forgets every failure recorded for the identifier.
func (throttle *Throttle) Clear(identifier string) {
	if identifier == "" {
		return
	}

	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	delete(throttle.records, identifier)
}

// RemainingLockoutMinutes reports the whole minutes left in the identifier's
// lockout, computed as the lockout duration minus the elapsed whole minutes.
// It is 0 when the identifier is not locked.
func (throttle *Throttle) RemainingLockoutMinutes(identifier string) int {
	if identifier == "" {
		return 0
	}

	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	now := throttle.clock.Now()
	current := throttle.liveLocked(identifier, now)
	if current == nil || !current.locked() {
		return 0
	}

	elapsedMinutes := int(now.Sub(current.lockoutStart) / time.Minute)
	return max(int(throttle.lockoutDuration/time.Minute)-elapsedMinutes, 0)
}

// Failures reports the failure count currently held for the identifier.
func (throttle *Throttle) Failures(identifier string) int {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	current := throttle.liveLocked(identifier, throttle.clock.Now())
	if current == nil {
		return 0
	}
	return current.failures
}

// liveLocked returns the identifier's record, evicting it first if its lockout
// window has elapsed. Must be called with throttle.mu held.
func (throttle *Throttle) liveLocked(identifier string, now time.Time) *record {
	current, found := throttle.records[identifier]
	if !found {
		return nil
	}
	if current.locked() && now.Sub(current.lockoutStart) >= throttle.lockoutDuration {
		delete(throttle.records, identifier)
		return nil
	}
	return current
}

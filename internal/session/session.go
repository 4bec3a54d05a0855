// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session holds the process-local table of authenticated sessions.

A session binds an opaque token to a principal for a bounded idle period. There
is no background timer: expiry is detected when a session is accessed, and
[Store.Create] opportunistically sweeps the whole table.

# Concurrency

Every operation, including the read-and-maybe-evict performed by [Store.Validate],
runs under a single mutex owned by the [Store] instance.
*/
package session

import (
	"sync"
	"time"

	"github.com/taibuivan/aula/internal/platform/clock"
	"github.com/taibuivan/aula/internal/platform/sec"
)

// DefaultTimeout is the idle period after which a session expires.
const DefaultTimeout = 30 * time.Minute

// # Domain Entities

// Session is one authenticated principal's active login.
type Session struct {
	Token        string       `json:"-"`
	UserID       string       `json:"user_id"`
	Username     string       `json:"username"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`
}

// expired reports whether the session has been idle longer than timeout at now.
func (s *Session) expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActivity) > timeout
}

// # Store

// Store is the in-memory token -> [Session] table. Callers only ever receive copies.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	clock    clock.Clock
	tokens   sec.TokenGenerator
}

// NewStore constructs an empty [Store]. A non-positive timeout selects [DefaultTimeout].
func NewStore(timeout time.Duration, clk clock.Clock, tokens sec.TokenGenerator) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		clock:    clk,
		tokens:   tokens,
	}
}

// Timeout reports the idle period after which sessions expire.
func (store *Store) Timeout() time.Duration {
	return store.timeout
}

/*
Create registers a new session and returns its token.

Description: Draws a token that is not already in use, stamps CreatedAt and
LastActivity with the current time, and evicts every expired session as a side
effect.

Parameters:
  - userID: string
  - username: string
  - role: sec.UserRole

Returns:
  - string: Opaque session token
*/
func (store *Store) Create(userID, username string, role sec.UserRole) string {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.clock.Now()
	store.sweepLocked(now)

	token := store.tokens.NewToken()
	for store.takenLocked(token) {
		token = store.tokens.NewToken()
	}

	store.sessions[token] = &Session{
		Token:        token,
		UserID:       userID,
		Username:     username,
		Role:         role,
		CreatedAt:    now,
		LastActivity: now,
	}
	return token
}

/*
Validate resolves a token to its session and renews it.

Description: An idle session older than the timeout is removed and reported as
absent. Otherwise its LastActivity becomes now.

Parameters:
  - token: string

Returns:
  - Session: Copy of the renewed session
  - bool: false if the token is empty, unknown or expired
*/
func (store *Store) Validate(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	current, found := store.sessions[token]
	if !found {
		return Session{}, false
	}

	now := store.clock.Now()
	if current.expired(now, store.timeout) {
		delete(store.sessions, token)
		return Session{}, false
	}

	current.LastActivity = now
	return *current, true
}

// Close removes the session. Unknown or empty tokens are ignored.
func (store *Store) Close(token string) {
	if token == "" {
		return
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.sessions, token)
}

// Sweep removes every expired session and reports how many were evicted.
func (store *Store) Sweep() int {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.sweepLocked(store.clock.Now())
}

// Len reports the number of sessions currently held, expired ones included
// until the next sweep.
func (store *Store) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()

	return len(store.sessions)
}

// takenLocked reports whether token cannot be handed out. Must be called with store.mu held.
func (store *Store) takenLocked(token string) bool {
	_, found := store.sessions[token]
	return found || token == ""
}

// sweepLocked must be called with store.mu held.
func (store *Store) sweepLocked(now time.Time) int {
	evicted := 0
	for token, current := range store.sessions {
		if current.expired(now, store.timeout) {
			delete(store.sessions, token)
			evicted++
		}
	}
	return evicted
}

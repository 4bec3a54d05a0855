// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/clock"
	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/session"
	"github.com/taibuivan/aula/internal/throttle"
	"github.com/taibuivan/aula/internal/users/auth"
)

// # Fixtures

const goodPassword = "Abcdef1!"

var epoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type fakeDirectory struct {
	mu       sync.Mutex
	users    []*auth.User
	findErr  error
	touchErr error
	finds    int
	touched  map[string]time.Time
}

func (directory *fakeDirectory) FindByIdentifier(_ context.Context, identifier string) (*auth.User, error) {
	directory.mu.Lock()
	defer directory.mu.Unlock()

	directory.finds++
	if directory.findErr != nil {
		return nil, directory.findErr
	}
	for _, user := range directory.users {
		if user.Email == identifier || user.Username == identifier {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (directory *fakeDirectory) TouchLastAccess(_ context.Context, userID string, at time.Time) error {
	directory.mu.Lock()
	defer directory.mu.Unlock()

	if directory.touchErr != nil {
		return directory.touchErr
	}
	if directory.touched == nil {
		directory.touched = make(map[string]time.Time)
	}
	directory.touched[userID] = at
	return nil
}

func (directory *fakeDirectory) Ping(context.Context) error { return nil }

func (directory *fakeDirectory) findCount() int {
	directory.mu.Lock()
	defer directory.mu.Unlock()
	return directory.finds
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	lockouts int
}

func (observer *recordingObserver) ObserveLogin(outcome string) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	if observer.outcomes == nil {
		observer.outcomes = make(map[string]int)
	}
	observer.outcomes[outcome]++
}

func (observer *recordingObserver) ObserveLockout() {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.lockouts++
}

type harness struct {
	service   *auth.Service
	directory *fakeDirectory
	clock     *clock.Manual
	throttle  *throttle.Throttle
	observer  *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	hasher := sec.NewPasswordHasher(bcrypt.MinCost)
	digest, err := hasher.Hash(goodPassword)
	require.NoError(t, err)

	directory := &fakeDirectory{users: []*auth.User{
		{ID: "u-admin", Username: "root", Email: "root@aula.edu", PasswordHash: digest, Role: sec.RoleAdmin},
		{ID: "u-teacher", Username: "ana", Email: "ana@aula.edu", PasswordHash: digest, Role: sec.RoleTeacher},
		{ID: "u-director", Username: "dir", Email: "dir@aula.edu", PasswordHash: digest, Role: sec.RoleDirector},
		{ID: "u-parent", Username: "pepe", Email: "pepe@aula.edu", PasswordHash: digest, Role: sec.RoleParent},
	}}

	clk := clock.NewManual(epoch)
	limiter := throttle.New(throttle.DefaultMaxAttempts, throttle.DefaultLockoutDuration, clk)
	observer := &recordingObserver{}

	service := auth.NewService(auth.Dependencies{
		Directory: directory,
		Hasher:    hasher,
		Sessions:  session.NewStore(session.DefaultTimeout, clk, sec.UUIDTokens{}),
		Throttle:  limiter,
		Clock:     clk,
		Observer:  observer,
	})

	return &harness{service: service, directory: directory, clock: clk, throttle: limiter, observer: observer}
}

// # Login

/*
TestService_LoginSuccess verifies the happy path and the persisted last access.
*/
func TestService_LoginSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	established, ok := h.service.Login(ctx, "ana@aula.edu", goodPassword)
	require.True(t, ok)

	assert.NotEmpty(t, established.Token)
	assert.Equal(t, "u-teacher", established.UserID)
	assert.Equal(t, "ana", established.Username)
	assert.Equal(t, sec.RoleTeacher, established.Role)
	assert.Equal(t, epoch, established.CreatedAt)

	current, ok := h.service.CurrentPrincipal()
	require.True(t, ok)
	assert.Equal(t, established.Token, current.Token)
	assert.True(t, h.service.IsLoggedIn())

	assert.Equal(t, epoch, h.directory.touched["u-teacher"])
	assert.Equal(t, 1, h.observer.outcomes[auth.OutcomeSuccess])
}

/*
TestService_LoginByUsername verifies that the identifier may be the username.
*/
func TestService_LoginByUsername(t *testing.T) {
	h := newHarness(t)

	established, ok := h.service.Login(context.Background(), "  root ", goodPassword)
	require.True(t, ok)
	assert.Equal(t, sec.RoleAdmin, established.Role)
}

/*
TestService_LoginFailures verifies that wrong passwords and unknown identifiers
both fail and both count against the identifier.
*/
func TestService_LoginFailures(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		password   string
	}{
		{"wrong password", "ana@aula.edu", "Wrong123!"},
		{"unknown identifier", "ghost@aula.edu", goodPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, ok := h.service.Login(context.Background(), tt.identifier, tt.password)
			assert.False(t, ok)
			assert.False(t, h.service.IsLoggedIn())
			assert.Equal(t, 1, h.throttle.Failures(tt.identifier))
			assert.Equal(t, 1, h.observer.outcomes[auth.OutcomeFailure])
		})
	}
}

/*
TestService_LoginBlankInput verifies that a blank identifier fails without being
counted while a blank password counts against a real identifier.
*/
func TestService_LoginBlankInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, ok := h.service.Login(ctx, "   ", goodPassword)
	assert.False(t, ok)
	assert.Zero(t, h.directory.findCount())

	_, ok = h.service.Login(ctx, "ana@aula.edu", "")
	assert.False(t, ok)
	assert.Equal(t, 1, h.directory.findCount())
	assert.Equal(t, 1, h.throttle.Failures("ana@aula.edu"))
}

/*
TestService_BlankPasswordsLockOut verifies that repeated blank passwords engage
the lockout like any other wrong password.
*/
func TestService_BlankPasswordsLockOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for range 10 {
		_, ok := h.service.Login(ctx, "ana@aula.edu", "")
		require.False(t, ok)
	}

	assert.True(t, h.throttle.IsLocked("ana@aula.edu"))
	assert.Equal(t, 5, h.directory.findCount())
	assert.Equal(t, 1, h.observer.lockouts)
	assert.Equal(t, 5, h.observer.outcomes[auth.OutcomeLocked])

	_, ok := h.service.Login(ctx, "ana@aula.edu", goodPassword)
	assert.False(t, ok)
}

/*
TestService_StartSession verifies that token-only logins leave the current
principal alone and yield independent sessions.
*/
func TestService_StartSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	teacher, ok := h.service.StartSession(ctx, "ana", goodPassword)
	require.True(t, ok)
	director, ok := h.service.StartSession(ctx, "dir", goodPassword)
	require.True(t, ok)

	assert.False(t, h.service.IsLoggedIn())

	resolved, ok := h.service.ValidateSession(teacher.Token)
	require.True(t, ok)
	assert.Equal(t, "u-teacher", resolved.UserID)

	resolved, ok = h.service.ValidateSession(director.Token)
	require.True(t, ok)
	assert.Equal(t, "u-director", resolved.UserID)

	// Failures still count on the token-only path.
	_, ok = h.service.StartSession(ctx, "root", "Wrong123!")
	assert.False(t, ok)
	assert.Equal(t, 1, h.throttle.Failures("root"))
}

/*
TestService_Lockout verifies that the fifth failure locks the identifier, that the
directory is not consulted while locked and that the lock lifts after 15 minutes.
*/
func TestService_Lockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for range 5 {
		_, ok := h.service.Login(ctx, "ana@aula.edu", "Wrong123!")
		require.False(t, ok)
	}
	assert.Equal(t, 1, h.observer.lockouts)
	assert.Equal(t, 15, h.service.RemainingLockoutMinutes("ana@aula.edu"))

	findsBefore := h.directory.findCount()

	// Correct password while locked still fails and never reaches the directory.
	_, ok := h.service.Login(ctx, "ana@aula.edu", goodPassword)
	assert.False(t, ok)
	assert.Equal(t, findsBefore, h.directory.findCount())
	assert.Equal(t, 1, h.observer.outcomes[auth.OutcomeLocked])

	h.clock.Advance(14 * time.Minute)
	_, ok = h.service.Login(ctx, "ana@aula.edu", goodPassword)
	assert.False(t, ok)
	assert.Equal(t, 1, h.service.RemainingLockoutMinutes("ana@aula.edu"))

	h.clock.Advance(time.Minute)
	_, ok = h.service.Login(ctx, "ana@aula.edu", goodPassword)
	assert.True(t, ok)
	assert.Zero(t, h.service.RemainingLockoutMinutes("ana@aula.edu"))
}

/*
TestService_LockoutSharesNormalizedIdentifier verifies that case variants of a
login identifier feed one counter.
*/
func TestService_LockoutSharesNormalizedIdentifier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	variants := []string{"ana@aula.edu", "ANA@aula.edu", "Ana@Aula.Edu", " ana@aula.edu", "ana@AULA.edu"}
	for _, identifier := range variants {
		_, ok := h.service.Login(ctx, identifier, "Wrong123!")
		require.False(t, ok)
	}

	assert.Positive(t, h.service.RemainingLockoutMinutes("ana@aula.edu"))
}

/*
TestService_SuccessClearsFailures covers "three failures, success, four failures":
the counter restarts after the success, so the identifier stays unlocked.
*/
func TestService_SuccessClearsFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for range 3 {
		_, ok := h.service.Login(ctx, "ana@aula.edu", "Wrong123!")
		require.False(t, ok)
	}

	_, ok := h.service.Login(ctx, "ana@aula.edu", goodPassword)
	require.True(t, ok)
	assert.Zero(t, h.throttle.Failures("ana@aula.edu"))

	for range 4 {
		_, ok := h.service.Login(ctx, "ana@aula.edu", "Wrong123!")
		require.False(t, ok)
	}

	assert.False(t, h.throttle.IsLocked("ana@aula.edu"))
	assert.Equal(t, 4, h.throttle.Failures("ana@aula.edu"))
}

/*
TestService_FourFailuresThenSuccess verifies that a success one attempt short of
the limit is accepted.
*/
func TestService_FourFailuresThenSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for range 4 {
		_, ok := h.service.Login(ctx, "ana@aula.edu", "Wrong123!")
		require.False(t, ok)
	}

	_, ok := h.service.Login(ctx, "ana@aula.edu", goodPassword)
	assert.True(t, ok)
	assert.Zero(t, h.throttle.Failures("ana@aula.edu"))
}

/*
TestService_DirectoryError verifies that storage failures fail the login without
counting as a credential failure.
*/
func TestService_DirectoryError(t *testing.T) {
	h := newHarness(t)
	h.directory.findErr = errors.New("connection refused")

	_, ok := h.service.Login(context.Background(), "ana@aula.edu", goodPassword)
	assert.False(t, ok)
	assert.Zero(t, h.throttle.Failures("ana@aula.edu"))
	assert.Equal(t, 1, h.observer.outcomes[auth.OutcomeError])
}

/*
TestService_TouchFailureIsTolerated verifies that last-access persistence errors
do not fail an otherwise valid login.
*/
func TestService_TouchFailureIsTolerated(t *testing.T) {
	h := newHarness(t)
	h.directory.touchErr = errors.New("write conflict")

	_, ok := h.service.Login(context.Background(), "ana@aula.edu", goodPassword)
	assert.True(t, ok)
	assert.True(t, h.service.IsLoggedIn())
}

// # Session Lifecycle

/*
TestService_LogoutClosesToken verifies that logout clears the principal and
invalidates its token.
*/
func TestService_LogoutClosesToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	established, ok := h.service.Login(ctx, "ana@aula.edu", goodPassword)
	require.True(t, ok)

	h.service.Logout(ctx)

	assert.False(t, h.service.IsLoggedIn())
	_, ok = h.service.ValidateSession(established.Token)
	assert.False(t, ok)

	// Logging out twice is harmless.
	h.service.Logout(ctx)
	assert.False(t, h.service.IsLoggedIn())
}

/*
TestService_EndSession verifies that closing the current token logs the service out
while closing another token leaves it logged in.
*/
func TestService_EndSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, ok := h.service.Login(ctx, "root", goodPassword)
	require.True(t, ok)
	second, ok := h.service.Login(ctx, "ana", goodPassword)
	require.True(t, ok)

	h.service.EndSession(ctx, first.Token)
	assert.True(t, h.service.IsLoggedIn())
	_, ok = h.service.ValidateSession(first.Token)
	assert.False(t, ok)

	h.service.EndSession(ctx, second.Token)
	assert.False(t, h.service.IsLoggedIn())
}

/*
TestService_IdleExpiry verifies that activity renews the session and that
31 idle minutes end it.
*/
func TestService_IdleExpiry(t *testing.T) {
	h := newHarness(t)

	_, ok := h.service.Login(context.Background(), "ana@aula.edu", goodPassword)
	require.True(t, ok)

	h.clock.Advance(29 * time.Minute)
	assert.True(t, h.service.IsLoggedIn())

	h.clock.Advance(29 * time.Minute)
	assert.True(t, h.service.IsLoggedIn())

	h.clock.Advance(31 * time.Minute)
	assert.False(t, h.service.IsLoggedIn())

	_, ok = h.service.CurrentPrincipal()
	assert.False(t, ok)
}

// # Role Gates

/*
TestService_RoleGates verifies the gate predicates against each role.
*/
func TestService_RoleGates(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		gate       func(*auth.Service) bool
		want       bool
	}{
		{"teacher cannot manage all users", "ana", (*auth.Service).CanManageAllUsers, false},
		{"admin manages all users", "root", (*auth.Service).CanManageAllUsers, true},
		{"admin manages payments", "root", (*auth.Service).CanManagePayments, true},
		{"director manages teachers", "dir", (*auth.Service).CanManageTeacherUsers, true},
		{"director manages non-admins", "dir", (*auth.Service).CanManageNonAdminUsers, true},
		{"director cannot manage all users", "dir", (*auth.Service).CanManageAllUsers, false},
		{"director links parents", "dir", (*auth.Service).CanManageParentStudentRelations, true},
		{"teacher manages grades", "ana", (*auth.Service).CanManageGrades, true},
		{"teacher manages attendance", "ana", (*auth.Service).CanManageAttendance, true},
		{"teacher generates reports", "ana", (*auth.Service).CanGenerateReports, true},
		{"teacher cannot manage subjects", "ana", (*auth.Service).CanManageSubjects, false},
		{"teacher cannot manage students", "ana", (*auth.Service).CanManageStudentUsers, false},
		{"parent cannot manage grades", "pepe", (*auth.Service).CanManageGrades, false},
		{"parent cannot manage groups", "pepe", (*auth.Service).CanManageGroups, false},
		{"parent cannot manage parents", "pepe", (*auth.Service).CanManageParentUsers, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, ok := h.service.Login(context.Background(), tt.identifier, goodPassword)
			require.True(t, ok)

			assert.Equal(t, tt.want, tt.gate(h.service))
		})
	}
}

/*
TestService_GatesWhenLoggedOut verifies that every gate is closed without a principal.
*/
func TestService_GatesWhenLoggedOut(t *testing.T) {
	h := newHarness(t)

	for _, permission := range sec.AllPermissions {
		assert.False(t, h.service.Can(permission), permission)
	}
	assert.False(t, h.service.HasRole(sec.RoleAdmin))
}

/*
TestService_HasRole verifies exact role matching of the current principal.
*/
func TestService_HasRole(t *testing.T) {
	h := newHarness(t)

	_, ok := h.service.Login(context.Background(), "dir", goodPassword)
	require.True(t, ok)

	assert.True(t, h.service.HasRole(sec.RoleDirector))
	assert.False(t, h.service.HasRole(sec.RoleAdmin))
}

/*
TestService_ConcurrentLogins exercises the service under parallel logins and checks.
*/
func TestService_ConcurrentLogins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(attempt int) {
			defer wg.Done()
			password := goodPassword
			if attempt%2 == 0 {
				password = "Wrong123!"
			}
			h.service.Login(ctx, "root", password)
			h.service.IsLoggedIn()
			h.service.CanManageAllUsers()
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, any lockout has lifted after its duration.
	h.clock.Advance(throttle.DefaultLockoutDuration)
	_, ok := h.service.Login(ctx, "root", goodPassword)
	assert.True(t, ok)
}

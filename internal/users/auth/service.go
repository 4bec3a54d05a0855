// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/clock"
	"github.com/taibuivan/aula/internal/platform/ctxutil"
	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/platform/validate"
	"github.com/taibuivan/aula/internal/session"
	"github.com/taibuivan/aula/internal/throttle"
)

// # Contracts & Types

// PasswordVerifier checks a plain-text password against a stored digest.
type PasswordVerifier interface {
	Verify(plainTextPassword, existingHash string) bool
}

// Observer receives login telemetry. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveLogin(outcome string)
	ObserveLockout()
}

type nopObserver struct{}

func (nopObserver) ObserveLogin(string) {}
func (nopObserver) ObserveLockout()     {}

// Dependencies groups the collaborators of a [Service].
type Dependencies struct {
	Directory UserDirectory
	Hasher    PasswordVerifier
	Sessions  *session.Store
	Throttle  *throttle.Throttle
	Clock     clock.Clock

	// Observer is optional.
	Observer Observer
}

// Service is the login state machine: LoggedOut until [Service.Login] succeeds,
// LoggedIn(session) until [Service.Logout] or the session expires.
//
// # Review Process
//
// This service is critical for security. Any change to the order of the lockout,
// lookup and verification steps must be reviewed by the security team.
type Service struct {
	directory UserDirectory
	hasher    PasswordVerifier
	sessions  *session.Store
	throttle  *throttle.Throttle
	clock     clock.Clock
	observer  Observer

	mu      sync.Mutex
	current *session.Session
}

// NewService constructs a logged-out [Service].
func NewService(deps Dependencies) *Service {
	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		directory: deps.Directory,
		hasher:    deps.Hasher,
		sessions:  deps.Sessions,
		throttle:  deps.Throttle,
		clock:     deps.Clock,
		observer:  observer,
	}
}

// # Authentication Flow

/*
Login authenticates a principal and makes it the current session.

Description: A locked-out identifier is rejected before the directory or the
hasher is consulted. An unknown identifier and a wrong password are
indistinguishable to the caller; both count as a failed attempt. On success the
failure history is cleared, a session is created and the account's last access
is persisted.

Parameters:
  - context: context.Context
  - identifier: string (Email or Username)
  - password: string

Returns:
  - session.Session: The new current session
  - bool: false on any authentication failure
*/
func (service *Service) Login(context context.Context, identifier, password string) (session.Session, bool) {
	established, ok := service.authenticate(context, identifier, password)
	if !ok {
		return session.Session{}, false
	}

	service.mu.Lock()
	service.current = &established
	service.mu.Unlock()

	return established, true
}

/*
StartSession authenticates like [Service.Login] but only issues a token.

Description: The current principal is left untouched, so concurrent clients
each hold their own session. The HTTP surface logs in through this path and
resolves callers with [Service.ValidateSession].
*/
func (service *Service) StartSession(context context.Context, identifier, password string) (session.Session, bool) {
	return service.authenticate(context, identifier, password)
}

// authenticate runs the lockout, lookup and verify steps and creates a session.
func (service *Service) authenticate(context context.Context, identifier, password string) (session.Session, bool) {
	logger := ctxutil.GetLogger(context)
	key := validate.NormalizeIdentifier(identifier)

	if key == "" {
		service.observer.ObserveLogin(OutcomeFailure)
		return session.Session{}, false
	}

	// Locked identifiers never reach the directory or the hasher.
	if service.throttle.IsLocked(key) {
		logger.WarnContext(context, "auth_login_rejected_locked",
			slog.String("identifier", key),
			slog.Int("remaining_minutes", service.throttle.RemainingLockoutMinutes(key)),
		)
		service.observer.ObserveLogin(OutcomeLocked)
		return session.Session{}, false
	}

	lookupCtx, cancel := contextWithDirectoryTimeout(context)
	user, err := service.directory.FindByIdentifier(lookupCtx, strings.TrimSpace(identifier))
	cancel()

	// Storage failures are not the caller's fault and are not counted as attempts.
	if err != nil && !apperr.HasCode(err, apperr.CodeNotFound) {
		logger.ErrorContext(context, "auth_directory_lookup_failed",
			slog.String("identifier", key),
			slog.Any("error", err),
		)
		service.observer.ObserveLogin(OutcomeError)
		return session.Session{}, false
	}

	if user == nil || !service.hasher.Verify(password, user.PasswordHash) {
		service.recordFailure(context, key)
		return session.Session{}, false
	}

	service.throttle.Clear(key)

	token := service.sessions.Create(user.ID, user.Username, user.Role)
	established, ok := service.sessions.Validate(token)
	if !ok {
		logger.ErrorContext(context, "auth_session_vanished", slog.String("user_id", user.ID))
		service.observer.ObserveLogin(OutcomeError)
		return session.Session{}, false
	}

	touchCtx, cancel := contextWithDirectoryTimeout(context)
	if err := service.directory.TouchLastAccess(touchCtx, user.ID, service.clock.Now()); err != nil {
		logger.WarnContext(context, "auth_touch_last_access_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	cancel()

	logger.InfoContext(context, "auth_login_succeeded",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	service.observer.ObserveLogin(OutcomeSuccess)

	return established, true
}

// recordFailure counts a failed attempt and reports a freshly engaged lockout.
func (service *Service) recordFailure(context context.Context, key string) {
	logger := ctxutil.GetLogger(context)

	if service.throttle.RecordFailure(key) {
		logger.WarnContext(context, "auth_lockout_engaged",
			slog.String("identifier", key),
			slog.Duration("duration", service.throttle.LockoutDuration()),
		)
		service.observer.ObserveLockout()
	} else {
		logger.InfoContext(context, "auth_login_failed",
			slog.String("identifier", key),
			slog.Int("failures", service.throttle.Failures(key)),
		)
	}
	service.observer.ObserveLogin(OutcomeFailure)
}

/*
Logout ends the current session.

Description: Clears the current principal and closes its token in the session
store, so the token cannot be validated afterwards. A no-op when logged out.

Parameters:
  - context: context.Context
*/
func (service *Service) Logout(context context.Context) {
	service.mu.Lock()
	current := service.current
	service.current = nil
	service.mu.Unlock()

	if current == nil {
		return
	}

	service.sessions.Close(current.Token)
	ctxutil.GetLogger(context).InfoContext(context, "auth_logout", slog.String("user_id", current.UserID))
}

// EndSession closes an arbitrary session token. When the token belongs to the
// current principal the service also transitions to LoggedOut.
func (service *Service) EndSession(context context.Context, token string) {
	if token == "" {
		return
	}

	service.mu.Lock()
	if service.current != nil && service.current.Token == token {
		service.current = nil
	}
	service.mu.Unlock()

	service.sessions.Close(token)
	ctxutil.GetLogger(context).InfoContext(context, "auth_session_ended")
}

// # Session Introspection

// CurrentPrincipal returns the current session after renewing it in the store.
// A current session that has expired is dropped and reported as absent.
func (service *Service) CurrentPrincipal() (session.Session, bool) {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.current == nil {
		return session.Session{}, false
	}

	renewed, ok := service.sessions.Validate(service.current.Token)
	if !ok {
		service.current = nil
		return session.Session{}, false
	}

	service.current = &renewed
	return renewed, true
}

// IsLoggedIn reports whether a live current session exists.
func (service *Service) IsLoggedIn() bool {
	_, ok := service.CurrentPrincipal()
	return ok
}

// ValidateSession resolves and renews any session token.
func (service *Service) ValidateSession(token string) (session.Session, bool) {
	return service.sessions.Validate(token)
}

// SessionTimeout is the idle period after which sessions expire.
func (service *Service) SessionTimeout() time.Duration {
	return service.sessions.Timeout()
}

// RemainingLockoutMinutes reports how long the identifier stays locked out.
func (service *Service) RemainingLockoutMinutes(identifier string) int {
	return service.throttle.RemainingLockoutMinutes(validate.NormalizeIdentifier(identifier))
}

// # Role Gates

// HasRole reports whether the current principal holds exactly the given role.
func (service *Service) HasRole(role sec.UserRole) bool {
	current, ok := service.CurrentPrincipal()
	return ok && current.Role == role
}

// Can reports whether the current principal's role grants the permission.
// It is false when nobody is logged in.
func (service *Service) Can(permission sec.Permission) bool {
	current, ok := service.CurrentPrincipal()
	return ok && current.Role.Can(permission)
}

// CanManageAllUsers gates writes to any account, administrators included.
func (service *Service) CanManageAllUsers() bool { return service.Can(sec.PermManageAllUsers) }

// CanManageNonAdminUsers gates writes to every account except administrators.
func (service *Service) CanManageNonAdminUsers() bool {
	return service.Can(sec.PermManageNonAdminUsers)
}

// CanManageTeacherUsers gates writes to teacher accounts.
func (service *Service) CanManageTeacherUsers() bool { return service.Can(sec.PermManageTeacherUsers) }

// CanManageParentUsers gates writes to parent accounts.
func (service *Service) CanManageParentUsers() bool { return service.Can(sec.PermManageParentUsers) }

// CanManageStudentUsers gates writes to student accounts.
func (service *Service) CanManageStudentUsers() bool { return service.Can(sec.PermManageStudentUsers) }

// CanManageParentStudentRelations gates linking parents to students.
func (service *Service) CanManageParentStudentRelations() bool {
	return service.Can(sec.PermManageParentStudentRelations)
}

// CanManageSubjects gates the subject catalogue.
func (service *Service) CanManageSubjects() bool { return service.Can(sec.PermManageSubjects) }

// CanManageGroups gates class groups and their enrolment.
func (service *Service) CanManageGroups() bool { return service.Can(sec.PermManageGroups) }

// CanManageGrades gates recording and correcting grades.
func (service *Service) CanManageGrades() bool { return service.Can(sec.PermManageGrades) }

// CanManageAttendance gates attendance records.
func (service *Service) CanManageAttendance() bool { return service.Can(sec.PermManageAttendance) }

// CanManagePayments gates payment records.
func (service *Service) CanManagePayments() bool { return service.Can(sec.PermManagePayments) }

// CanGenerateReports gates report generation.
func (service *Service) CanGenerateReports() bool { return service.Can(sec.PermGenerateReports) }

func contextWithDirectoryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DirectoryTimeout)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/aula/internal/platform/request"
	"github.com/taibuivan/aula/internal/platform/respond"
	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/session"
)

// SessionValidator resolves and renews a bearer session token.
//
// The middleware depends on this contract rather than on the auth service so
// tests can inject a plain session store.
type SessionValidator interface {
	ValidateSession(token string) (session.Session, bool)
}

// Authenticate resolves the session token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, validate (and renew) the session via [SessionValidator].
//  4. Inject [*session.Session] into the request context for downstream use.
func Authenticate(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Format validation
			token, err := requestutil.BearerToken(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// 2. Anonymous access
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 3. Session validation
			current, ok := validator.ValidateSession(token)
			if !ok {
				respond.Error(writer, request, apperr.Unauthorized("Session expired or invalid"))
				return
			}

			// 4. Context injection
			ctx := ctxutil.WithSession(request.Context(), &current)
			recordSession(ctx, &current)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireSession blocks requests that do not carry a valid session.
//
// Must be registered in the router AFTER [Authenticate].
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, err := requestutil.RequiredSession(request); err != nil {
			respond.Error(writer, request, err)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequirePermission blocks requests whose session role does not grant the permission.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It implies
// [RequireSession] so you don't need to mount both.
func RequirePermission(permission sec.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current, err := requestutil.RequiredSession(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			if !current.Role.Can(permission) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Logger Correlation

// sessionSlot lets [StructuredLogger] observe the session that an inner
// [Authenticate] resolved, since contexts only flow downstream.
type sessionSlot struct {
	current *session.Session
}

type sessionSlotKey struct{}

func withSessionSlot(ctx context.Context, slot *sessionSlot) context.Context {
	return context.WithValue(ctx, sessionSlotKey{}, slot)
}

func recordSession(ctx context.Context, current *session.Session) {
	if slot, ok := ctx.Value(sessionSlotKey{}).(*sessionSlot); ok {
		slot.current = current
	}
}

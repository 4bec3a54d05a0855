// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aula/internal/platform/apperr"
	"github.com/taibuivan/aula/internal/platform/middleware"
	requestutil "github.com/taibuivan/aula/internal/platform/request"
	"github.com/taibuivan/aula/internal/platform/respond"
	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/platform/validate"
	"github.com/taibuivan/aula/internal/session"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Login, logout and introspection of the caller's session. Domain controllers
// mount [middleware.RequirePermission] instead of calling this handler.
// Requests are resolved by bearer token only; the service's current principal
// is never read or written here.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /login       : Authenticates and returns a session token.
//   - POST /logout      : Closes the bearer session.
//   - GET  /session     : Describes (and renews) the bearer session.
//   - GET  /permissions : Lists the permissions of the bearer's role.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/login", handler.login)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.authService))
		r.Use(middleware.RequireSession)
		r.Post("/logout", handler.logout)
		r.Get("/session", handler.session)
		r.Get("/permissions", handler.permissions)
	})

	return router
}

// # Payloads

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	UserID    string       `json:"user_id"`
	Username  string       `json:"username"`
	Role      sec.UserRole `json:"role"`
	ExpiresIn int64        `json:"expires_in"`
}

type sessionResponse struct {
	UserID       string       `json:"user_id"`
	Username     string       `json:"username"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActivity time.Time    `json:"last_activity"`
	ExpiresIn    int64        `json:"expires_in"`
}

type permissionsResponse struct {
	Role        sec.UserRole     `json:"role"`
	Permissions []sec.Permission `json:"permissions"`
}

/*
Login authenticates a principal and establishes a session.

POST /api/v1/auth/login

Description: Wrong passwords and unknown identifiers produce the same 401 so
callers cannot probe which accounts exist. Locked identifiers get a 429 with
the remaining lockout as Retry-After.

Request:
  - Body: loginRequest (Login, Password)

Response:
  - 200: loginResponse: Session token and principal
  - 400: ErrInvalidJSON / VALIDATION_ERROR
  - 401: UNAUTHORIZED: Invalid credentials
  - 429: RATE_LIMITED: Identifier locked out
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	established, ok := handler.authService.StartSession(request.Context(), input.Login, input.Password)
	if !ok {
		if minutes := handler.authService.RemainingLockoutMinutes(input.Login); minutes > 0 {
			respond.Error(writer, request, apperr.RateLimited(minutes*60))
			return
		}
		respond.Error(writer, request, apperr.Unauthorized(MessageInvalidCredentials))
		return
	}

	respond.OK(writer, loginResponse{
		Token:     established.Token,
		UserID:    established.UserID,
		Username:  established.Username,
		Role:      established.Role,
		ExpiresIn: handler.expiresIn(),
	})
}

/*
Logout terminates the bearer session.

POST /api/v1/auth/logout

Response:
  - 204: No Content: Session closed
  - 401: UNAUTHORIZED: Missing or expired session
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.authService.EndSession(request.Context(), current.Token)
	respond.NoContent(writer)
}

// session describes the bearer session. Authenticate already renewed it.
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, toSessionResponse(current, handler.expiresIn()))
}

func (handler *Handler) permissions(writer http.ResponseWriter, request *http.Request) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permissionsResponse{
		Role:        current.Role,
		Permissions: current.Role.Granted(),
	})
}

func (handler *Handler) expiresIn() int64 {
	return int64(handler.authService.SessionTimeout() / time.Second)
}

func toSessionResponse(current *session.Session, expiresIn int64) sessionResponse {
	return sessionResponse{
		UserID:       current.UserID,
		Username:     current.Username,
		Role:         current.Role,
		CreatedAt:    current.CreatedAt,
		LastActivity: current.LastActivity,
		ExpiresIn:    expiresIn,
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/httpx"
	"github.com/marketbay/api/internal/services"
)

const maxAuthBodySize = 8 * 1024

// AuthHandlers exposes registration, login, and session endpoints.
type AuthHandlers struct {
	users services.UserService
}

// NewAuthHandlers constructs the authentication handlers.
func NewAuthHandlers(users services.UserService) *AuthHandlers {
	return &AuthHandlers{users: users}
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.currentUser)
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	session, err := h.users.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildSessionResponse(session))
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	session, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSessionResponse(session))
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.users.Logout(ctx); err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"loggedOut": true})
}

func (h *AuthHandlers) currentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	user, err := h.users.CurrentUser(ctx)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserPayload(user)})
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "email or password is incorrect", http.StatusUnauthorized))
	case errors.Is(err, services.ErrUserEmailTaken):
		httpx.WriteError(ctx, w, httpx.NewError("email_taken", "email is already registered", http.StatusConflict))
	case errors.Is(err, services.ErrUserNotAuthenticated):
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "no active session", http.StatusUnauthorized))
	case errors.Is(err, services.ErrUserPersist):
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "account state could not be saved", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to serve user request", http.StatusInternalServerError))
	}
}

type sessionResponse struct {
	User  userPayload `json:"user"`
	Token string      `json:"token"`
}

type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func buildSessionResponse(session services.Session) sessionResponse {
	return sessionResponse{User: buildUserPayload(session.User), Token: session.Token}
}

func buildUserPayload(user domain.User) userPayload {
	return userPayload{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

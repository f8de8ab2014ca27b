package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/service"
)

// IdentityService is what the auth and page handlers need from
// service.AuthService.
type IdentityService interface {
	Register(ctx context.Context, name, email, password string) (*model.UserSummary, error)
	Authenticate(ctx context.Context, email, password string) (*service.AuthResult, error)
	Whoami(ctx context.Context, id model.Identity) (*model.UserSummary, bool)
}

// AuthHandler serves /api/auth/*.
//
// COOKIE FLOW:
//  1. POST /api/auth/login checks credentials and sets the "token" cookie
//  2. The browser sends the cookie on every request to this origin
//  3. auth.Authenticate resolves it into an Identity for each request
//  4. GET /api/auth/logout tells the browser to drop the cookie
type AuthHandler struct {
	identity IdentityService
	cookies  auth.SessionCookies
	logger   *slog.Logger
}

func NewAuthHandler(identity IdentityService, cookies auth.SessionCookies, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, cookies: cookies, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Msg  string             `json:"msg"`
	User *model.UserSummary `json:"user"`
}

// MeResponse reports who the session belongs to. User is omitted for
// anonymous callers.
type MeResponse struct {
	IsAuthenticated bool               `json:"isAuthenticated"`
	User            *model.UserSummary `json:"user,omitempty"`
}

// HandleRegister handles POST /api/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	if _, err := h.identity.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeError(w, r, h.logger, err, errorText{Conflict: "User already exists"})
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Msg: "User registered successfully"})
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	result, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err, errorText{Internal: "Internal Error"})
		return
	}

	h.cookies.Set(w, result.Token)
	writeJSON(w, http.StatusOK, LoginResponse{Msg: "Login Successful", User: result.User})
}

// HandleLogout handles GET /api/auth/logout. It always succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Logout Successful"})
}

// HandleMe handles GET /api/auth/me. It never fails; every problem reads as
// {"isAuthenticated": false}.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.identity.Whoami(r.Context(), auth.IdentityFromContext(r.Context()))
	if !ok {
		writeJSON(w, http.StatusOK, MeResponse{IsAuthenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{IsAuthenticated: true, User: user})
}

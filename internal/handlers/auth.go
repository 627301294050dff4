package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mquintana/divscope/internal/auth"
	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/services"
	pkghttp "github.com/mquintana/divscope/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(email, password string) (*services.AuthResponse, error)
	Setup(email, password string) (*services.AuthResponse, error)
	SetupAvailable() (bool, error)
	GetUser(email string) (*models.User, error)
}

// AuthHandler handles login, logout, and the first-run setup flow
type AuthHandler struct {
	service      AuthServiceInterface
	cookieConfig auth.CookieConfig
	sessionTTL   int
}

func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, sessionTTL int) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		sessionTTL:   sessionTTL,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetupRequest represents the request body for first-run setup
type SetupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SetupStatusResponse reports whether the first-run setup flow is open
type SetupStatusResponse struct {
	SetupAvailable bool `json:"setup_available"`
}

// Login handles POST /auth/login. On success the session token is returned
// in the body and mirrored into an httpOnly cookie for browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Authentication failed")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetSessionCookie(w, authResp.SessionToken, h.sessionTTL, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// SetupStatus handles GET /auth/setup.
func (h *AuthHandler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	available, err := h.service.SetupAvailable()
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, SetupStatusResponse{SetupAvailable: available})
}

// Setup handles POST /auth/setup. It creates the first admin account and
// returns a logged-in session; once any account exists it always conflicts.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authResp, err := h.service.Setup(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrSetupComplete):
			pkghttp.WriteConflict(w, "Setup has already been completed")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid email or password")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, authResp.SessionToken, h.sessionTTL, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusCreated, authResp)
}

// Logout handles POST /auth/logout. Sessions are stateless, so logout just
// clears the browser cookie; bearer clients simply drop the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me and returns the current credential record.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	user, err := h.service.GetUser(claims.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteUnauthorized(w, "unauthorized")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.UserResponse{
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

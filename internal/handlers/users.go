package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mquintana/divscope/internal/auth"
	"github.com/mquintana/divscope/internal/models"
	"github.com/mquintana/divscope/internal/services"
	pkghttp "github.com/mquintana/divscope/pkg/http"
)

// UserServiceInterface defines the interface for account management
type UserServiceInterface interface {
	UpsertUser(actorEmail, email, password, role string) (*services.UserResponse, error)
	ListUsers() ([]*services.UserResponse, error)
}

// UserHandler handles the admin account-management endpoints
type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// UpsertUserRequest represents the request body for creating or replacing
// a credential record
type UpsertUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers()
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Upsert handles POST /users. An existing record for the email is replaced
// wholesale, so this doubles as a password reset.
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpsertUser(claims.Email, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid email, password, or role")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, user)
}

package models

import (
	"strings"
	"time"
)

// Roles recognized by the credential store.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a credential record as persisted in users.json. The hash fields
// (Algorithm, Iterations, SaltB64, HashB64) are always jointly present.
type User struct {
	Email      string    `json:"-"` // map key in users.json, not serialized
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	Algorithm  string    `json:"algo"`
	Iterations int       `json:"iterations"`
	SaltB64    string    `json:"salt_b64"`
	HashB64    string    `json:"hash_b64"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NormalizeEmail lowercases and trims an email so it can serve as the
// unique key of a credential record.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one of the two recognized roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims carried by a dashboard session token.
// They replace the ambient session-state lookups of earlier revisions with
// an explicit per-request object.
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the session belongs to an admin user.
func (c *SessionClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

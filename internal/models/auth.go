package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the issued token plus the operator profile, so the
// frontend does not need a second round trip after login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// ChangePasswordRequest is the self-service password change payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UserInfo is the operator profile embedded in auth responses.
type UserInfo struct {
	Username    string   `json:"username"`
	Role        UserRole `json:"role"`
	Permissions []string `json:"permissions"`
}

// JWTClaims is the access-token payload. Role rides in the token so RBAC
// checks need no database lookup.
type JWTClaims struct {
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

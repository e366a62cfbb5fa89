package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityType distinguishes student and admin tokens.
type IdentityType string

const (
	IdentityStudent IdentityType = "student"
	IdentityAdmin   IdentityType = "admin"
)

// LoginRequest holds credentials for authenticating a student or admin.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SignupRequest registers a new student account.
type SignupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FullName   string `json:"full_name" validate:"required"`
	RollNumber string `json:"roll_number" validate:"required"`
	Degree     string `json:"degree" validate:"required"`
	Branch     string `json:"branch" validate:"required"`
	Division   string `json:"division"`
}

// BootstrapRequest creates the first super admin.
type BootstrapRequest struct {
	Passcode string `json:"passcode" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
}

// LoginResponse returns the issued access token and the caller identity.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Identity    Identity  `json:"identity"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID      string       `json:"uid"`
	Type        IdentityType `json:"type"`
	Email       string       `json:"email,omitempty"`
	Role        string       `json:"role,omitempty"`
	Permissions []string     `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the resolved caller of a request.
type Identity struct {
	ID          string       `json:"id"`
	Type        IdentityType `json:"type"`
	Email       string       `json:"email"`
	Role        string       `json:"role,omitempty"`
	Permissions []string     `json:"permissions,omitempty"`
}

// IdentityFromClaims builds an Identity from verified claims.
func IdentityFromClaims(claims *JWTClaims) *Identity {
	return &Identity{
		ID:          claims.UserID,
		Type:        claims.Type,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}
}

// IsStudent reports whether the identity is a student.
func (i *Identity) IsStudent() bool { return i != nil && i.Type == IdentityStudent }

// IsAdmin reports whether the identity is an admin.
func (i *Identity) IsAdmin() bool { return i != nil && i.Type == IdentityAdmin }

// HasRole reports whether the admin identity carries one of the role codes.
func (i *Identity) HasRole(codes ...string) bool {
	if !i.IsAdmin() {
		return false
	}
	for _, code := range codes {
		if i.Role == code {
			return true
		}
	}
	return false
}

// HasPermission reports whether the admin identity holds the permission. The
// super admin role holds every permission.
func (i *Identity) HasPermission(code string) bool {
	if !i.IsAdmin() {
		return false
	}
	if i.Role == RoleSuperAdmin {
		return true
	}
	for _, p := range i.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

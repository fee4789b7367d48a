package user

import "errors"

const (
	RoleOwner  = "owner"
	RoleWriter = "writer"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose hash in JSON responses
	Role         string `json:"role"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// absent role defaults to writer; validity is checked with ValidRole
	// after the default is applied
	Role string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleWriter
}

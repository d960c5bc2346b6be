package dto

import (
	"time"

	"github.com/spec-kit/pqrsd-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Password     string          `json:"password"`
	Role         domain.UserRole `json:"role"`
	DepartmentID *string         `json:"department_id"`
}

// UserResponse omits credentials.
type UserResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Role         domain.UserRole `json:"role"`
	DepartmentID *string         `json:"department_id"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
}

package domain

import "time"

// UserRole enumerates internal operator roles.
type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleOperator UserRole = "OPERATOR"
	UserRoleAnalyst  UserRole = "ANALYST"
)

// User models an internal operator who processes cases. Petitioners are not
// users; they track their case with the filing number and access code.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

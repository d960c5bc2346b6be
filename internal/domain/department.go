package domain

import "time"

// Department represents an organizational unit cases are assigned to.
// Departments are soft-deleted by clearing Active.
type Department struct {
	ID          string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

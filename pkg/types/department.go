package types

import "time"

// Department represents a clinic department. Reads are public.
type Department struct {
	ID          string    `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateDepartmentRequest represents department creation data
type CreateDepartmentRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DepartmentUpdates represents updates to a department
type DepartmentUpdates struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

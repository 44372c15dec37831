package types

import "time"

// UserRole represents the different user roles in the system
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleDoctor  UserRole = "doctor"
	RolePatient UserRole = "patient"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// UserStatus represents account status values
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User represents a registered account. PasswordHash never leaves the
// process: it is excluded from every wire form.
type User struct {
	ID           string     `json:"id" db:"id"`
	Account      string     `json:"account" db:"account"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password"`
	Gender       string     `json:"gender" db:"gender"`
	Phone        string     `json:"phone" db:"phone"`
	Email        string     `json:"email,omitempty" db:"email"`
	Birthday     *time.Time `json:"birthday,omitempty" db:"birthday"`
	Role         UserRole   `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Account  string     `json:"account"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Gender   string     `json:"gender"`
	Phone    string     `json:"phone"`
	Email    string     `json:"email,omitempty"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Role     UserRole   `json:"role"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the principal view.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UserUpdates represents updates to user information
type UserUpdates struct {
	Name     *string     `json:"name,omitempty"`
	Gender   *string     `json:"gender,omitempty"`
	Phone    *string     `json:"phone,omitempty"`
	Email    *string     `json:"email,omitempty"`
	Birthday *time.Time  `json:"birthday,omitempty"`
	Status   *UserStatus `json:"status,omitempty"`
}

// UserFilters represents filters for user listings
type UserFilters struct {
	Role   UserRole   `json:"role,omitempty"`
	Status UserStatus `json:"status,omitempty"`
	Page   int        `json:"page,omitempty"`
	PerPage int       `json:"per_page,omitempty"`
}

// Principal is the per-request resolved identity.
type Principal struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}

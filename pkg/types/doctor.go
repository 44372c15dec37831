package types

import "time"

// Doctor represents a clinician profile extending a doctor-role user.
// Exactly one profile exists per clinician principal.
type Doctor struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Hospital     string    `json:"hospital" db:"hospital"`
	Department   string    `json:"department" db:"department"`
	Title        string    `json:"title" db:"title"`
	Specialties  []string  `json:"specialties" db:"specialties"`
	Introduction string    `json:"introduction" db:"introduction"`
	Experience   string    `json:"experience" db:"experience"`
	Photos       []string  `json:"photos,omitempty" db:"photos"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CreateDoctorRequest represents clinician profile creation data
type CreateDoctorRequest struct {
	UserID       string   `json:"user_id"`
	Hospital     string   `json:"hospital"`
	Department   string   `json:"department"`
	Title        string   `json:"title"`
	Specialties  []string `json:"specialties"`
	Introduction string   `json:"introduction"`
	Experience   string   `json:"experience"`
}

// DoctorUpdates represents updates to a clinician profile
type DoctorUpdates struct {
	Hospital     *string  `json:"hospital,omitempty"`
	Department   *string  `json:"department,omitempty"`
	Title        *string  `json:"title,omitempty"`
	Specialties  []string `json:"specialties,omitempty"`
	Introduction *string  `json:"introduction,omitempty"`
	Experience   *string  `json:"experience,omitempty"`
}

// DoctorFilters represents filters for doctor listings
type DoctorFilters struct {
	Department string `json:"department,omitempty"`
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"per_page,omitempty"`
}

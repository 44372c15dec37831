package types

import "time"

// PatientProfile is a contact card owned by a patient principal. A patient
// may hold several (self, family members).
type PatientProfile struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Name         string     `json:"name" db:"name"`
	IDNumber     string     `json:"id_number" db:"id_number"`
	Phone        string     `json:"phone" db:"phone"`
	Gender       string     `json:"gender" db:"gender"`
	Birthday     *time.Time `json:"birthday,omitempty" db:"birthday"`
	Relationship string     `json:"relationship,omitempty" db:"relationship"`
	IsDefault    bool       `json:"is_default" db:"is_default"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// CreatePatientProfileRequest represents contact card creation data
type CreatePatientProfileRequest struct {
	Name         string     `json:"name"`
	IDNumber     string     `json:"id_number"`
	Phone        string     `json:"phone"`
	Gender       string     `json:"gender"`
	Birthday     *time.Time `json:"birthday,omitempty"`
	Relationship string     `json:"relationship,omitempty"`
	IsDefault    bool       `json:"is_default"`
}

// PatientProfileUpdates represents updates to a contact card
type PatientProfileUpdates struct {
	Name         *string    `json:"name,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Gender       *string    `json:"gender,omitempty"`
	Birthday     *time.Time `json:"birthday,omitempty"`
	Relationship *string    `json:"relationship,omitempty"`
	IsDefault    *bool      `json:"is_default,omitempty"`
}

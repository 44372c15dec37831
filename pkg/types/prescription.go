package types

import "time"

// Medicine is one entry on a prescription.
type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Notes     string `json:"notes,omitempty"`
}

// Prescription represents a clinician-issued prescription. Code is unique
// and follows RX<yyyymmdd><4-digit random>.
type Prescription struct {
	ID               string     `json:"id" db:"id"`
	Code             string     `json:"code" db:"code"`
	DoctorID         string     `json:"doctor_id" db:"doctor_id"`
	PatientID        string     `json:"patient_id" db:"patient_id"`
	PatientName      string     `json:"patient_name" db:"patient_name"`
	Diagnosis        string     `json:"diagnosis" db:"diagnosis"`
	Medicines        []Medicine `json:"medicines" db:"medicines"`
	Instructions     string     `json:"instructions" db:"instructions"`
	PrescriptionDate time.Time  `json:"prescription_date" db:"prescription_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// CreatePrescriptionRequest represents prescription issuance data
type CreatePrescriptionRequest struct {
	PatientID    string     `json:"patient_id"`
	PatientName  string     `json:"patient_name"`
	Diagnosis    string     `json:"diagnosis"`
	Medicines    []Medicine `json:"medicines"`
	Instructions string     `json:"instructions"`
}

// PrescriptionFilters represents filters for prescription listings
type PrescriptionFilters struct {
	DoctorID  string `json:"doctor_id,omitempty"`
	PatientID string `json:"patient_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	PerPage   int    `json:"per_page,omitempty"`
}

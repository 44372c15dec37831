package types

import "time"

// AppointmentStatus represents appointment lifecycle states
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether no further transition is legal from s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

// Occupying reports whether an appointment in this status holds its slot.
func (s AppointmentStatus) Occupying() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

// VisitType represents the consultation modality
type VisitType string

const (
	VisitOnlineVideo VisitType = "online_video"
	VisitOffline     VisitType = "offline"
)

// Valid reports whether the visit type is a known modality.
func (v VisitType) Valid() bool {
	return v == VisitOnlineVideo || v == VisitOffline
}

// Appointment represents a booking against a doctor's slot inventory.
type Appointment struct {
	ID               string            `json:"id" db:"id"`
	PatientID        string            `json:"patient_id" db:"patient_id"`
	DoctorID         string            `json:"doctor_id" db:"doctor_id"`
	AppointmentDate  time.Time         `json:"appointment_date" db:"appointment_date"`
	TimeSlot         string            `json:"time_slot" db:"time_slot"`
	VisitType        VisitType         `json:"visit_type" db:"visit_type"`
	Symptoms         string            `json:"symptoms" db:"symptoms"`
	HasVisitedBefore bool              `json:"has_visited_before" db:"has_visited_before"`
	Status           AppointmentStatus `json:"status" db:"status"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// CreateAppointmentRequest represents a booking request
type CreateAppointmentRequest struct {
	DoctorID         string    `json:"doctor_id"`
	AppointmentDate  time.Time `json:"appointment_date"`
	TimeSlot         string    `json:"time_slot"`
	VisitType        VisitType `json:"visit_type"`
	Symptoms         string    `json:"symptoms"`
	HasVisitedBefore bool      `json:"has_visited_before"`
}

// AppointmentUpdates represents updates to an appointment. Date and slot
// changes are only legal while the appointment is pending.
type AppointmentUpdates struct {
	AppointmentDate *time.Time         `json:"appointment_date,omitempty"`
	TimeSlot        *string            `json:"time_slot,omitempty"`
	Status          *AppointmentStatus `json:"status,omitempty"`
}

// AppointmentFilters represents filters for appointment listings
type AppointmentFilters struct {
	PatientID string            `json:"patient_id,omitempty"`
	DoctorID  string            `json:"doctor_id,omitempty"`
	Status    AppointmentStatus `json:"status,omitempty"`
	DateFrom  time.Time         `json:"date_from,omitempty"`
	DateTo    time.Time         `json:"date_to,omitempty"`
	Page      int               `json:"page,omitempty"`
	PerPage   int               `json:"per_page,omitempty"`
	// Descending orders by appointment date descending (patient history).
	Descending bool `json:"-"`
}

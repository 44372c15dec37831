package cache

import "fmt"

// Keys builds namespaced cache keys: one domain prefix per entity family,
// colon-separated segments.
var Keys = keyBuilder{}

type keyBuilder struct{}

func (keyBuilder) User(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func (keyBuilder) UserAccount(account string) string {
	return fmt.Sprintf("user:account:%s", account)
}

func (keyBuilder) Session(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (keyBuilder) SessionRevoked(token string) string {
	return fmt.Sprintf("session:revoked:%s", token)
}

func (keyBuilder) Doctor(doctorID string) string {
	return fmt.Sprintf("doctor:%s", doctorID)
}

func (keyBuilder) Appointment(appointmentID string) string {
	return fmt.Sprintf("appointment:%s", appointmentID)
}

func (keyBuilder) AppointmentSlots(doctorID, date string) string {
	return fmt.Sprintf("appointment_slots:%s:%s", doctorID, date)
}

func (keyBuilder) Prescription(prescriptionID string) string {
	return fmt.Sprintf("prescription:%s", prescriptionID)
}

func (keyBuilder) DepartmentList(page, size int) string {
	return fmt.Sprintf("departments:list:page%d:size%d", page, size)
}

func (keyBuilder) DepartmentListPattern() string {
	return "departments:list*"
}

func (keyBuilder) Department(departmentID string) string {
	return fmt.Sprintf("departments:%s", departmentID)
}

func (keyBuilder) StreamViewers(streamID string) string {
	return fmt.Sprintf("live_stream:%s:viewers", streamID)
}

func (keyBuilder) RateLimit(ip, endpoint string) string {
	return fmt.Sprintf("rate_limit:%s:%s", ip, endpoint)
}

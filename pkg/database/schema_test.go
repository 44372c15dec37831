package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Index expressions must be immutable on PostgreSQL. A bare
// timestamptz::date cast is only stable (it follows the session time
// zone) and makes CREATE INDEX fail, so the slot index has to derive the
// day in an explicit zone.
func TestSlotIndexDayExpression(t *testing.T) {
	assert.Contains(t, createAppointmentsIndexes, "(appointment_date AT TIME ZONE 'UTC')::date")
	assert.NotContains(t, createAppointmentsIndexes, "(appointment_date::date)")
}

func TestSlotIndexGuardsOccupyingStatuses(t *testing.T) {
	assert.Contains(t, createAppointmentsIndexes, "UNIQUE INDEX IF NOT EXISTS uniq_appointments_slot")
	assert.Contains(t, createAppointmentsIndexes, "WHERE status IN ('pending', 'confirmed')")
}

func TestSchemaStatementsAreIdempotent(t *testing.T) {
	for _, stmt := range []string{
		createUsersTable, createDoctorsTable, createDepartmentsTable,
		createAppointmentsTable, createPrescriptionsTable,
		createNotificationsTable, createPatientProfilesTable,
		createLiveStreamsTable, createFileUploadsTable,
	} {
		assert.True(t, strings.Contains(stmt, "IF NOT EXISTS"), stmt)
	}
}

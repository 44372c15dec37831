package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema.
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	tables := []string{
		createUsersTable,
		createDoctorsTable,
		createDepartmentsTable,
		createAppointmentsTable,
		createPrescriptionsTable,
		createNotificationsTable,
		createPatientProfilesTable,
		createLiveStreamsTable,
		createFileUploadsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createUsersIndexes,
		createAppointmentsIndexes,
		createPrescriptionsIndexes,
		createNotificationsIndexes,
		createPatientProfilesIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	db.logger.Info("Database schema created")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	account TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	password TEXT NOT NULL,
	gender TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT,
	birthday TIMESTAMPTZ,
	role TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createDoctorsTable = `
CREATE TABLE IF NOT EXISTS doctors (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	hospital TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	specialties JSONB NOT NULL DEFAULT '[]',
	introduction TEXT NOT NULL DEFAULT '',
	experience TEXT NOT NULL DEFAULT '',
	photos JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createDepartmentsTable = `
CREATE TABLE IF NOT EXISTS departments (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createAppointmentsTable = `
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	doctor_id TEXT NOT NULL,
	appointment_date TIMESTAMPTZ NOT NULL,
	time_slot TEXT NOT NULL,
	visit_type TEXT NOT NULL,
	symptoms TEXT NOT NULL DEFAULT '',
	has_visited_before BOOLEAN NOT NULL DEFAULT false,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createPrescriptionsTable = `
CREATE TABLE IF NOT EXISTS prescriptions (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	doctor_id TEXT NOT NULL,
	patient_id TEXT NOT NULL,
	patient_name TEXT NOT NULL,
	diagnosis TEXT NOT NULL,
	medicines JSONB NOT NULL DEFAULT '[]',
	instructions TEXT NOT NULL DEFAULT '',
	prescription_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	related_id TEXT,
	status TEXT NOT NULL DEFAULT 'unread',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	read_at TIMESTAMPTZ
);`

const createPatientProfilesTable = `
CREATE TABLE IF NOT EXISTS patient_profiles (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	id_number TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL DEFAULT '',
	birthday TIMESTAMPTZ,
	relationship TEXT,
	is_default BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createLiveStreamsTable = `
CREATE TABLE IF NOT EXISTS live_streams (
	id TEXT PRIMARY KEY,
	host_id TEXT NOT NULL,
	host_name TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'scheduled',
	scheduled_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ,
	ended_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createFileUploadsTable = `
CREATE TABLE IF NOT EXISTS file_uploads (
	id TEXT PRIMARY KEY,
	uploader_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size BIGINT NOT NULL,
	storage_key TEXT NOT NULL,
	related_type TEXT,
	related_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createUsersIndexes = `
CREATE INDEX IF NOT EXISTS idx_users_role ON users (role);
CREATE INDEX IF NOT EXISTS idx_users_status ON users (status);`

// The partial unique index is the slot-booking critical section: two
// concurrent inserts for the same (doctor, date, slot) can only both
// succeed if one of them is in a terminal status. The day is derived in
// UTC because index expressions must be immutable and a bare
// timestamptz::date cast depends on the session time zone.
const createAppointmentsIndexes = `
CREATE UNIQUE INDEX IF NOT EXISTS uniq_appointments_slot
	ON appointments (doctor_id, (((appointment_date AT TIME ZONE 'UTC')::date)), time_slot)
	WHERE status IN ('pending', 'confirmed');
CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments (patient_id, appointment_date DESC);
CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments (doctor_id, appointment_date);
CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments (status);`

const createPrescriptionsIndexes = `
CREATE INDEX IF NOT EXISTS idx_prescriptions_patient ON prescriptions (patient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_prescriptions_doctor ON prescriptions (doctor_id, created_at DESC);`

const createNotificationsIndexes = `
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications (user_id, status);`

const createPatientProfilesIndexes = `
CREATE INDEX IF NOT EXISTS idx_patient_profiles_user ON patient_profiles (user_id);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_patient_profiles_id_number
	ON patient_profiles (user_id, id_number);`

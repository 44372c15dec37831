package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Repository implements appointment data persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new appointment repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const appointmentColumns = `id, patient_id, doctor_id, appointment_date, time_slot, visit_type, symptoms, has_visited_before, status, created_at, updated_at`

func scanAppointment(row interface{ Scan(...interface{}) error }) (*types.Appointment, error) {
	var apt types.Appointment
	err := row.Scan(
		&apt.ID,
		&apt.PatientID,
		&apt.DoctorID,
		&apt.AppointmentDate,
		&apt.TimeSlot,
		&apt.VisitType,
		&apt.Symptoms,
		&apt.HasVisitedBefore,
		&apt.Status,
		&apt.CreatedAt,
		&apt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

// Create inserts a new appointment. The partial unique index over the slot
// key is the critical section: a concurrent booking of the same slot fails
// here with a Conflict.
func (r *Repository) Create(ctx context.Context, apt *types.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date,
			time_slot, visit_type, symptoms, has_visited_before, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.PatientID,
		apt.DoctorID,
		apt.AppointmentDate,
		apt.TimeSlot,
		apt.VisitType,
		apt.Symptoms,
		apt.HasVisitedBefore,
		apt.Status,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("time slot is already booked")
		}
		return types.NewInternalError("failed to create appointment", err)
	}

	r.logger.WithField("appointment_id", apt.ID).Info("Appointment created")
	return nil
}

// GetByID retrieves an appointment by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	apt, err := scanAppointment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("appointment not found")
		}
		return nil, types.NewInternalError("failed to get appointment", err)
	}
	return apt, nil
}

// UpdateStatus transitions an appointment guarded by its current status, so
// a concurrent transition cannot double-apply.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to types.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return types.NewInternalError("failed to update appointment status", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update appointment status", err)
	}
	if rows == 0 {
		return types.NewConflictError(fmt.Sprintf("appointment is no longer %s", from))
	}
	return nil
}

// Reschedule moves a pending appointment to a new slot key. The guard on
// status keeps it legal only while pending; the unique index rejects an
// occupied target slot.
func (r *Repository) Reschedule(ctx context.Context, id string, date time.Time, slot string) error {
	query := `
		UPDATE appointments SET appointment_date = $1, time_slot = $2, updated_at = $3
		WHERE id = $4 AND status = 'pending'`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, date, slot, time.Now(), id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("time slot is already booked")
		}
		return types.NewInternalError("failed to reschedule appointment", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to reschedule appointment", err)
	}
	if rows == 0 {
		return types.NewConflictError("only pending appointments can be rescheduled")
	}
	return nil
}

// OccupiedSlots returns the slot labels holding an occupying appointment
// for the clinician on the given date.
func (r *Repository) OccupiedSlots(ctx context.Context, doctorID string, date time.Time) ([]string, error) {
	query := `
		SELECT time_slot FROM appointments
		WHERE doctor_id = $1
		  AND (appointment_date AT TIME ZONE 'UTC')::date = ($2 AT TIME ZONE 'UTC')::date
		  AND status IN ('pending', 'confirmed')`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, doctorID, date)
	if err != nil {
		return nil, types.NewInternalError("failed to query occupied slots", err)
	}
	defer rows.Close()

	slots := []string{}
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, types.NewInternalError("failed to scan slot", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewInternalError("failed to query occupied slots", err)
	}
	return slots, nil
}

// List returns appointments matching the filters with a total count.
func (r *Repository) List(ctx context.Context, filters *types.AppointmentFilters, limit, offset int) ([]*types.Appointment, int, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if filters.PatientID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("patient_id = $%d", argIndex))
		args = append(args, filters.PatientID)
		argIndex++
	}
	if filters.DoctorID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("doctor_id = $%d", argIndex))
		args = append(args, filters.DoctorID)
		argIndex++
	}
	if filters.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}
	if !filters.DateFrom.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("appointment_date >= $%d", argIndex))
		args = append(args, filters.DateFrom)
		argIndex++
	}
	if !filters.DateTo.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("appointment_date <= $%d", argIndex))
		args = append(args, filters.DateTo)
		argIndex++
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	order := " ORDER BY appointment_date ASC"
	if filters.Descending {
		order = " ORDER BY appointment_date DESC"
	}

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var total int
	countQuery := "SELECT COUNT(*) FROM appointments" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, types.NewInternalError("failed to count appointments", err)
	}

	query := fmt.Sprintf("SELECT %s FROM appointments%s%s LIMIT $%d OFFSET $%d",
		appointmentColumns, where, order, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, types.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := []*types.Appointment{}
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, types.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, apt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewInternalError("failed to list appointments", err)
	}
	return appointments, total, nil
}

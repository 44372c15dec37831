package prescription

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Repository implements prescription persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new prescription repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const prescriptionColumns = `id, code, doctor_id, patient_id, patient_name, diagnosis, medicines, instructions, prescription_date, created_at`

func scanPrescription(row interface{ Scan(...interface{}) error }) (*types.Prescription, error) {
	var p types.Prescription
	var medicines []byte

	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.DoctorID,
		&p.PatientID,
		&p.PatientName,
		&p.Diagnosis,
		&medicines,
		&p.Instructions,
		&p.PrescriptionDate,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(medicines, &p.Medicines); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new prescription. A code collision comes back as a
// Conflict so the service can retry with a fresh code.
func (r *Repository) Create(ctx context.Context, p *types.Prescription) error {
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return types.NewInternalError("failed to encode medicines", err)
	}

	query := `
		INSERT INTO prescriptions (id, code, doctor_id, patient_id, patient_name,
			diagnosis, medicines, instructions, prescription_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Code, p.DoctorID, p.PatientID, p.PatientName,
		p.Diagnosis, medicines, p.Instructions, p.PrescriptionDate, p.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("prescription code collision")
		}
		return types.NewInternalError("failed to create prescription", err)
	}

	r.logger.WithField("prescription_code", p.Code).Info("Prescription issued")
	return nil
}

// GetByID retrieves a prescription by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	p, err := scanPrescription(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("prescription not found")
		}
		return nil, types.NewInternalError("failed to get prescription", err)
	}
	return p, nil
}

// GetByCode retrieves a prescription by its unique code
func (r *Repository) GetByCode(ctx context.Context, code string) (*types.Prescription, error) {
	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE code = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	p, err := scanPrescription(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("prescription not found")
		}
		return nil, types.NewInternalError("failed to get prescription", err)
	}
	return p, nil
}

// List returns prescriptions matching the filters, newest first.
func (r *Repository) List(ctx context.Context, filters *types.PrescriptionFilters, limit, offset int) ([]*types.Prescription, int, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if filters.DoctorID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("doctor_id = $%d", argIndex))
		args = append(args, filters.DoctorID)
		argIndex++
	}
	if filters.PatientID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("patient_id = $%d", argIndex))
		args = append(args, filters.PatientID)
		argIndex++
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM prescriptions"+where, args...).Scan(&total); err != nil {
		return nil, 0, types.NewInternalError("failed to count prescriptions", err)
	}

	query := fmt.Sprintf("SELECT %s FROM prescriptions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		prescriptionColumns, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, types.NewInternalError("failed to list prescriptions", err)
	}
	defer rows.Close()

	prescriptions := []*types.Prescription{}
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, types.NewInternalError("failed to scan prescription", err)
		}
		prescriptions = append(prescriptions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewInternalError("failed to list prescriptions", err)
	}
	return prescriptions, total, nil
}

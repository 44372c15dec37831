package doctor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Repository implements clinician profile persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new doctor repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const doctorColumns = `id, user_id, hospital, department, title, specialties, introduction, experience, photos, created_at, updated_at`

func scanDoctor(row interface{ Scan(...interface{}) error }) (*types.Doctor, error) {
	var doc types.Doctor
	var specialties, photos []byte

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Hospital,
		&doc.Department,
		&doc.Title,
		&specialties,
		&doc.Introduction,
		&doc.Experience,
		&photos,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(specialties, &doc.Specialties); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(photos, &doc.Photos); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create inserts a new clinician profile. Each user may hold one profile.
func (r *Repository) Create(ctx context.Context, doc *types.Doctor) error {
	specialties, err := json.Marshal(doc.Specialties)
	if err != nil {
		return types.NewInternalError("failed to encode specialties", err)
	}
	photos, err := json.Marshal(doc.Photos)
	if err != nil {
		return types.NewInternalError("failed to encode photos", err)
	}

	query := `
		INSERT INTO doctors (id, user_id, hospital, department, title,
			specialties, introduction, experience, photos, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err = r.db.ExecContext(ctx, query,
		doc.ID, doc.UserID, doc.Hospital, doc.Department, doc.Title,
		specialties, doc.Introduction, doc.Experience, photos,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("clinician profile already exists for this user")
		}
		return types.NewInternalError("failed to create doctor", err)
	}

	r.logger.WithField("doctor_id", doc.ID).Info("Doctor profile created")
	return nil
}

// GetByID retrieves a clinician profile by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	doc, err := scanDoctor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("doctor not found")
		}
		return nil, types.NewInternalError("failed to get doctor", err)
	}
	return doc, nil
}

// GetByUserID retrieves the profile owned by a doctor-role user.
func (r *Repository) GetByUserID(ctx context.Context, userID string) (*types.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	doc, err := scanDoctor(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("doctor not found")
		}
		return nil, types.NewInternalError("failed to get doctor", err)
	}
	return doc, nil
}

// Update applies the non-nil fields of updates to the profile.
func (r *Repository) Update(ctx context.Context, id string, updates *types.DoctorUpdates) error {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if updates.Hospital != nil {
		setClauses = append(setClauses, fmt.Sprintf("hospital = $%d", argIndex))
		args = append(args, *updates.Hospital)
		argIndex++
	}
	if updates.Department != nil {
		setClauses = append(setClauses, fmt.Sprintf("department = $%d", argIndex))
		args = append(args, *updates.Department)
		argIndex++
	}
	if updates.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, *updates.Title)
		argIndex++
	}
	if updates.Specialties != nil {
		encoded, err := json.Marshal(updates.Specialties)
		if err != nil {
			return types.NewInternalError("failed to encode specialties", err)
		}
		setClauses = append(setClauses, fmt.Sprintf("specialties = $%d", argIndex))
		args = append(args, encoded)
		argIndex++
	}
	if updates.Introduction != nil {
		setClauses = append(setClauses, fmt.Sprintf("introduction = $%d", argIndex))
		args = append(args, *updates.Introduction)
		argIndex++
	}
	if updates.Experience != nil {
		setClauses = append(setClauses, fmt.Sprintf("experience = $%d", argIndex))
		args = append(args, *updates.Experience)
		argIndex++
	}

	if len(setClauses) == 0 {
		return types.NewValidationError("no fields to update")
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	args = append(args, id)
	query := fmt.Sprintf("UPDATE doctors SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argIndex)

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.NewInternalError("failed to update doctor", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update doctor", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("doctor not found")
	}
	return nil
}

// UpdatePhotos replaces the profile photo list.
func (r *Repository) UpdatePhotos(ctx context.Context, id string, photos []string) error {
	encoded, err := json.Marshal(photos)
	if err != nil {
		return types.NewInternalError("failed to encode photos", err)
	}

	query := `UPDATE doctors SET photos = $1, updated_at = $2 WHERE id = $3`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, encoded, time.Now(), id)
	if err != nil {
		return types.NewInternalError("failed to update photos", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update photos", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("doctor not found")
	}
	return nil
}

// Delete removes a clinician profile.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return types.NewInternalError("failed to delete doctor", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to delete doctor", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("doctor not found")
	}
	return nil
}

// List returns clinician profiles, optionally filtered by department.
func (r *Repository) List(ctx context.Context, filters *types.DoctorFilters, limit, offset int) ([]*types.Doctor, int, error) {
	where := ""
	args := []interface{}{}
	argIndex := 1

	if filters.Department != "" {
		where = fmt.Sprintf(" WHERE department = $%d", argIndex)
		args = append(args, filters.Department)
		argIndex++
	}

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM doctors"+where, args...).Scan(&total); err != nil {
		return nil, 0, types.NewInternalError("failed to count doctors", err)
	}

	query := fmt.Sprintf("SELECT %s FROM doctors%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		doctorColumns, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, types.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	doctors := []*types.Doctor{}
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, types.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewInternalError("failed to list doctors", err)
	}
	return doctors, total, nil
}

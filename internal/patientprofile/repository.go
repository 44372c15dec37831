package patientprofile

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

// Repository implements contact card persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new patient profile repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const profileColumns = `id, user_id, name, id_number, phone, gender, birthday, relationship, is_default, created_at, updated_at`

func scanProfile(row interface{ Scan(...interface{}) error }) (*types.PatientProfile, error) {
	var p types.PatientProfile
	var birthday sql.NullTime
	var relationship sql.NullString

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.IDNumber,
		&p.Phone,
		&p.Gender,
		&birthday,
		&relationship,
		&p.IsDefault,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if birthday.Valid {
		t := birthday.Time
		p.Birthday = &t
	}
	if relationship.Valid {
		p.Relationship = relationship.String
	}
	return &p, nil
}

// Create inserts a contact card. The same person (id number) may appear
// only once per owning user.
func (r *Repository) Create(ctx context.Context, p *types.PatientProfile) error {
	query := `
		INSERT INTO patient_profiles (id, user_id, name, id_number, phone,
			gender, birthday, relationship, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Name, p.IDNumber, p.Phone,
		p.Gender, p.Birthday, nullableString(p.Relationship), p.IsDefault,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("a profile with this id number already exists")
		}
		return types.NewInternalError("failed to create patient profile", err)
	}
	return nil
}

// GetByID retrieves a contact card by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.PatientProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM patient_profiles WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("patient profile not found")
		}
		return nil, types.NewInternalError("failed to get patient profile", err)
	}
	return p, nil
}

// ListByUser returns every contact card owned by the user, default first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*types.PatientProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM patient_profiles
		WHERE user_id = $1 ORDER BY is_default DESC, created_at ASC`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, types.NewInternalError("failed to list patient profiles", err)
	}
	defer rows.Close()

	profiles := []*types.PatientProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, types.NewInternalError("failed to scan patient profile", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewInternalError("failed to list patient profiles", err)
	}
	return profiles, nil
}

// Update applies the non-nil fields of updates.
func (r *Repository) Update(ctx context.Context, id string, updates *types.PatientProfileUpdates) error {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if updates.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *updates.Name)
		argIndex++
	}
	if updates.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argIndex))
		args = append(args, *updates.Phone)
		argIndex++
	}
	if updates.Gender != nil {
		setClauses = append(setClauses, fmt.Sprintf("gender = $%d", argIndex))
		args = append(args, *updates.Gender)
		argIndex++
	}
	if updates.Birthday != nil {
		setClauses = append(setClauses, fmt.Sprintf("birthday = $%d", argIndex))
		args = append(args, *updates.Birthday)
		argIndex++
	}
	if updates.Relationship != nil {
		setClauses = append(setClauses, fmt.Sprintf("relationship = $%d", argIndex))
		args = append(args, *updates.Relationship)
		argIndex++
	}
	if updates.IsDefault != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_default = $%d", argIndex))
		args = append(args, *updates.IsDefault)
		argIndex++
	}

	if len(setClauses) == 0 {
		return types.NewValidationError("no fields to update")
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	args = append(args, id)
	query := fmt.Sprintf("UPDATE patient_profiles SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argIndex)

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.NewInternalError("failed to update patient profile", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update patient profile", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("patient profile not found")
	}
	return nil
}

// ClearDefault unsets the default flag on every card owned by the user.
func (r *Repository) ClearDefault(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`UPDATE patient_profiles SET is_default = false WHERE user_id = $1`, userID)
	if err != nil {
		return types.NewInternalError("failed to clear default profile", err)
	}
	return nil
}

// Delete removes a contact card.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM patient_profiles WHERE id = $1`, id)
	if err != nil {
		return types.NewInternalError("failed to delete patient profile", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to delete patient profile", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("patient profile not found")
	}
	return nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package department

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

// Repository implements department persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new department repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const departmentColumns = `id, code, name, description, created_at, updated_at`

func scanDepartment(row interface{ Scan(...interface{}) error }) (*types.Department, error) {
	var dep types.Department
	err := row.Scan(
		&dep.ID,
		&dep.Code,
		&dep.Name,
		&dep.Description,
		&dep.CreatedAt,
		&dep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// Create inserts a new department. Codes are unique.
func (r *Repository) Create(ctx context.Context, dep *types.Department) error {
	query := `
		INSERT INTO departments (id, code, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err := r.db.ExecContext(ctx, query,
		dep.ID, dep.Code, dep.Name, dep.Description, dep.CreatedAt, dep.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("department code already exists")
		}
		return types.NewInternalError("failed to create department", err)
	}
	return nil
}

// GetByID retrieves a department by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	dep, err := scanDepartment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("department not found")
		}
		return nil, types.NewInternalError("failed to get department", err)
	}
	return dep, nil
}

// GetByCode retrieves a department by its unique code
func (r *Repository) GetByCode(ctx context.Context, code string) (*types.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE code = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	dep, err := scanDepartment(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("department not found")
		}
		return nil, types.NewInternalError("failed to get department", err)
	}
	return dep, nil
}

// Update applies the non-nil fields of updates.
func (r *Repository) Update(ctx context.Context, id string, updates *types.DepartmentUpdates) error {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if updates.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *updates.Name)
		argIndex++
	}
	if updates.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *updates.Description)
		argIndex++
	}

	if len(setClauses) == 0 {
		return types.NewValidationError("no fields to update")
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	args = append(args, id)
	query := fmt.Sprintf("UPDATE departments SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argIndex)

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.NewInternalError("failed to update department", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update department", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("department not found")
	}
	return nil
}

// Delete removes a department.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return types.NewInternalError("failed to delete department", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to delete department", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("department not found")
	}
	return nil
}

// List returns departments ordered by code.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*types.Department, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&total); err != nil {
		return nil, 0, types.NewInternalError("failed to count departments", err)
	}

	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY code ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, types.NewInternalError("failed to list departments", err)
	}
	defer rows.Close()

	departments := []*types.Department{}
	for rows.Next() {
		dep, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, types.NewInternalError("failed to scan department", err)
		}
		departments = append(departments, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewInternalError("failed to list departments", err)
	}
	return departments, total, nil
}

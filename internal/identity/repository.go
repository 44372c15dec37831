package identity

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

// UserRepository implements user data persistence
type UserRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, log *logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: log,
	}
}

const userColumns = `id, account, name, password, gender, phone, email, birthday, role, status, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*types.User, error) {
	var user types.User
	var email sql.NullString
	var birthday sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Account,
		&user.Name,
		&user.PasswordHash,
		&user.Gender,
		&user.Phone,
		&email,
		&birthday,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		user.Email = email.String
	}
	if birthday.Valid {
		t := birthday.Time
		user.Birthday = &t
	}
	return &user, nil
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	query := `
		INSERT INTO users (id, account, name, password, gender, phone,
			email, birthday, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Account,
		user.Name,
		user.PasswordHash,
		user.Gender,
		user.Phone,
		nullString(user.Email),
		user.Birthday,
		user.Role,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewConflictError("account already registered")
		}
		return types.NewInternalError("failed to create user", err)
	}

	r.logger.WithUserID(user.ID).Info("User created")
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("user not found")
		}
		return nil, types.NewInternalError("failed to get user", err)
	}
	return user, nil
}

// GetByAccount retrieves a user by account handle
func (r *UserRepository) GetByAccount(ctx context.Context, account string) (*types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE account = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, query, account))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("user not found")
		}
		return nil, types.NewInternalError("failed to get user", err)
	}
	return user, nil
}

// Update applies the non-nil fields of updates to the user row.
func (r *UserRepository) Update(ctx context.Context, id string, updates *types.UserUpdates) error {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if updates.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *updates.Name)
		argIndex++
	}
	if updates.Gender != nil {
		setClauses = append(setClauses, fmt.Sprintf("gender = $%d", argIndex))
		args = append(args, *updates.Gender)
		argIndex++
	}
	if updates.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argIndex))
		args = append(args, *updates.Phone)
		argIndex++
	}
	if updates.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argIndex))
		args = append(args, *updates.Email)
		argIndex++
	}
	if updates.Birthday != nil {
		setClauses = append(setClauses, fmt.Sprintf("birthday = $%d", argIndex))
		args = append(args, *updates.Birthday)
		argIndex++
	}
	if updates.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *updates.Status)
		argIndex++
	}

	if len(setClauses) == 0 {
		return types.NewValidationError("no fields to update")
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argIndex)

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.NewInternalError("failed to update user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update user", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("user not found")
	}
	return nil
}

// UpdatePassword replaces the stored password digest.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password = $1, updated_at = $2 WHERE id = $3`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return types.NewInternalError("failed to update password", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update password", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("user not found")
	}
	return nil
}

// List returns users matching the filters, newest first.
func (r *UserRepository) List(ctx context.Context, filters *types.UserFilters, limit, offset int) ([]*types.User, int, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if filters.Role != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, filters.Role)
		argIndex++
	}
	if filters.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var total int
	countQuery := "SELECT COUNT(*) FROM users" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, types.NewInternalError("failed to count users", err)
	}

	query := fmt.Sprintf("SELECT %s FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		userColumns, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, types.NewInternalError("failed to list users", err)
	}
	defer rows.Close()

	users := []*types.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, types.NewInternalError("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewInternalError("failed to list users", err)
	}
	return users, total, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

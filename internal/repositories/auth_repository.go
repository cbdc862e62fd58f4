package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_backoffice/internal/models"
)

// AuthRepository defines the interface for staff user database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, exec SQLExecutor, user *models.User) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, exec SQLExecutor, user *models.User) error
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const userColumns = `id, username, password_hash, email, full_name, role, is_active, created_at, updated_at`

func scanUser(s scanner, u *models.User) error {
	var email, fullName sql.NullString
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &fullName, &u.Role, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Email = stringPtr(email)
	u.FullName = stringPtr(fullName)
	return nil
}

// CreateUser inserts a new staff user. PasswordHash must already be hashed.
func (r *authRepository) CreateUser(ctx context.Context, exec SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO usuarios (username, password_hash, email, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	err := exec.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, nullString(user.Email), nullString(user.FullName),
		user.Role, user.IsActive, now, now,
	).Scan(&user.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating user")
	}
	return user.ID, nil
}

func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE username = $1`, username), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, nil
}

func (r *authRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, id, err)
	}
	return user, nil
}

func (r *authRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}

func (r *authRepository) UpdateUser(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `UPDATE usuarios SET
	            password_hash = $1, email = $2, full_name = $3, role = $4, is_active = $5, updated_at = $6
	          WHERE id = $7`

	user.UpdatedAt = time.Now()
	res, err := exec.ExecContext(ctx, query,
		user.PasswordHash, nullString(user.Email), nullString(user.FullName), user.Role, user.IsActive,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return wrapWriteError(err, "updating user")
	}
	return expectOneRow(res, "updating user")
}

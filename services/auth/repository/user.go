package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/piresc/otpgate/internal/pkg/models"
	"github.com/piresc/otpgate/services/auth"
)

const userColumns = `id, msisdn, fullname, role, password_hash, created_at, updated_at, is_active`

// UserRepo stores accounts in PostgreSQL
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUserByMSISDN retrieves a user by MSISDN
func (r *UserRepo) GetUserByMSISDN(ctx context.Context, msisdn string) (*models.User, error) {
	return r.getUserByField(ctx, "msisdn", msisdn)
}

// GetUserByID retrieves a user by ID
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID %q: %w", id, auth.ErrUserNotFound)
	}
	return r.getUserByField(ctx, "id", userID.String())
}

// CreateUser creates a new user in the database
func (r *UserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, msisdn, fullname, role, password_hash,
			created_at, updated_at, is_active
		) VALUES (:id, :msisdn, :fullname, :role, :password_hash,
			:created_at, :updated_at, :is_active)
	`
	if _, err = tx.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdatePassword replaces the password hash of a user
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if affected == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// getUserByField is a helper function to get a user by a specific column
func (r *UserRepo) getUserByField(ctx context.Context, field, value string) (*models.User, error) {
	query := r.db.Rebind(fmt.Sprintf(`SELECT %s FROM users WHERE %s = ?`, userColumns, field))

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

var _ auth.UserRepo = (*UserRepo)(nil)

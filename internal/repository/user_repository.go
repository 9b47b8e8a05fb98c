package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kitchen-store/internal/domain"

	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrResetTokenNotFound   = errors.New("reset token is invalid or expired")
	ErrResetTokenNotApplied = errors.New("reset token was already used")
)

const userColumns = `
	id, email, password_hash, first_name, last_name, phone, date_of_birth,
	reset_token, reset_expires, is_active, email_verified, created_at, updated_at`

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate, now time.Time) error
	SetResetToken(ctx context.Context, id int64, token string, expires, now time.Time) error
	FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
	ResetPassword(ctx context.Context, id int64, token, passwordHash string, now time.Time) error
}

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in the generated ID
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (email, password_hash, first_name, last_name, phone, date_of_birth,
			is_active, email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowxContext(
		ctx,
		query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.DateOfBirth,
		user.IsActive,
		user.EmailVerified,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, args ...interface{}) (*domain.User, error) {
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + where)

	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, args...); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves a user by email using parameterized queries
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.findOne(ctx, "email = ?", email)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := r.findOne(ctx, "id = ?", id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, update domain.ProfileUpdate, now time.Time) error {
	query := r.db.Rebind(`
		UPDATE users
		SET first_name = ?, last_name = ?, phone = ?, date_of_birth = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		update.FirstName, update.LastName, update.Phone, update.DateOfBirth, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	return checkAffected(result, ErrUserNotFound)
}

// SetResetToken stores a password reset token, replacing any earlier one
func (r *userRepository) SetResetToken(ctx context.Context, id int64, token string, expires, now time.Time) error {
	query := r.db.Rebind(`UPDATE users SET reset_token = ?, reset_expires = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, token, expires.UTC(), now.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return checkAffected(result, ErrUserNotFound)
}

// FindByResetToken returns the user holding token if it has not expired at now
func (r *userRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	user, err := r.findOne(ctx, "reset_token = ? AND reset_expires > ?", token, now.UTC())
	if err != nil {
		if isNoRows(err) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to find user by reset token: %w", err)
	}

	return user, nil
}

// ResetPassword sets a new hash and clears the reset token. The update only
// applies while the token still matches, so a token redeems at most once.
func (r *userRepository) ResetPassword(ctx context.Context, id int64, token, passwordHash string, now time.Time) error {
	query := r.db.Rebind(`
		UPDATE users
		SET password_hash = ?, reset_token = NULL, reset_expires = NULL, updated_at = ?
		WHERE id = ? AND reset_token = ?
	`)

	result, err := r.db.ExecContext(ctx, query, passwordHash, now.UTC(), id, token)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return checkAffected(result, ErrResetTokenNotApplied)
}

package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

// UserRepository persists local [models.User] accounts.
type UserRepository struct {
	db  *sql.DB
	now clock
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: utcNow}
}

// Create inserts a new user with a generated ID. Emails are stored lowercased.
func (r *UserRepository) Create(user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	user.ID = shared.GenerateID()
	user.CreatedAt = r.now()

	query := `
		INSERT INTO users (id, email, display_name, created_at) VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, user.ID, user.Email, user.DisplayName, user.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	return r.scanOne(`
		SELECT id, email, display_name, created_at
		FROM users
		WHERE id = ? AND deleted_at IS NULL
	`, id)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.scanOne(`
		SELECT id, email, display_name, created_at
		FROM users
		WHERE email = ? AND deleted_at IS NULL
	`, strings.ToLower(strings.TrimSpace(email)))
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, r.now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return affected(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id))
}

func (r *UserRepository) scanOne(query string, arg any) (*models.User, error) {
	var user models.User

	err := r.db.QueryRow(query, arg).Scan(&user.ID, &user.Email, &user.DisplayName, &user.CreatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %v", shared.ErrUserNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

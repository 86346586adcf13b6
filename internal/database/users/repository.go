// Package users provides database operations for locally registered accounts.
//
// Users live in the relational database even when domain data is kept in
// Firestore; only AUTH_MODE=local reads them.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByLogin("alice")
package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mrlokans/matjip/internal/entities"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrExists   = errors.New("user already exists")
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user with a generated ID. The username and email must
// not belong to an existing user.
func (r *Repository) Create(user *entities.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.User
		err := tx.Where("username = ? OR email = ?", user.Username, user.Email).First(&existing).Error
		if err == nil {
			return ErrExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "failed to check existing user")
		}

		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		return errors.Wrap(tx.Create(user).Error, "failed to create user")
	})
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(id string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByLogin retrieves a user by username or email.
func (r *Repository) GetByLogin(login string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ? OR email = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Count returns the number of registered users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// RecordLogin resets the failed login counter after a successful login.
func (r *Repository) RecordLogin(id string, at time.Time) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Updates(map[string]any{
		"last_login_at":      at,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
}

// RecordFailedLogin stores the new failure count and, when set, the lockout end.
func (r *Repository) RecordFailedLogin(id string, failedCount int, lockedUntil *time.Time) error {
	updates := map[string]any{"failed_login_count": failedCount}
	if lockedUntil != nil {
		updates["locked_until"] = *lockedUntil
	}
	return r.db.Model(&entities.User{}).Where("id = ?", id).Updates(updates).Error
}

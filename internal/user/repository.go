// File: internal/user/repository.go
package user

import (
	"context"
	"errors"

	"dga_gateway_backend/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for user data operations.
type Repository interface {
	// Upsert inserts the user on first login and overwrites all citizen
	// fields on every subsequent login for the same UserID
	// (last-write-wins, no merge). Returns the persisted row.
	Upsert(ctx context.Context, user *User) (*User, error)
	FindByUserID(ctx context.Context, userID string) (*User, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// citizenColumns are the fields overwritten on conflict. created_at is
// deliberately absent so the first-login timestamp survives re-logins.
var citizenColumns = []string{
	"citizen_id",
	"first_name",
	"middle_name",
	"last_name",
	"date_of_birth_string",
	"mobile",
	"email",
	"notification",
	"updated_at",
}

func (r *gormRepository) Upsert(ctx context.Context, user *User) (*User, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(citizenColumns),
		}).
		Create(user).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the surrogate key and the original
	// created_at on the conflict path, not the values from this insert
	// attempt.
	return r.FindByUserID(ctx, user.UserID)
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID string) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this user ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

// File: internal/user/model.go
package user

import (
	"time"

	"dga_gateway_backend/internal/egov"
)

// User represents the persisted projection of a validated citizen record.
// Keyed by the provider-issued UserID, not the local surrogate ID. Citizen
// fields are pointers to allow NULL, matching the provider's habit of
// omitting fields.
type User struct {
	ID                uint    `gorm:"primaryKey"`
	UserID            string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	CitizenID         *string `gorm:"type:varchar(32)"`
	FirstName         *string `gorm:"type:varchar(100)"`
	MiddleName        *string `gorm:"type:varchar(100)"`
	LastName          *string `gorm:"type:varchar(100)"`
	DateOfBirthString *string `gorm:"type:varchar(32)"`
	Mobile            *string `gorm:"type:varchar(32)"`
	Email             *string `gorm:"type:varchar(255)"`
	Notification      bool    `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// FromCitizen builds a User row from an extracted citizen record.
func FromCitizen(c *egov.CitizenData) *User {
	return &User{
		UserID:            c.UserID,
		CitizenID:         ptr(c.CitizenID),
		FirstName:         ptr(c.FirstName),
		MiddleName:        c.MiddleName,
		LastName:          ptr(c.LastName),
		DateOfBirthString: ptr(c.DateOfBirthString),
		Mobile:            ptr(c.Mobile),
		Email:             ptr(c.Email),
		Notification:      c.Notification,
	}
}

func ptr(s string) *string {
	return &s
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID                uint      `json:"id"`
	UserID            string    `json:"userId"`
	CitizenID         *string   `json:"citizenId"`
	FirstName         *string   `json:"firstName"`
	MiddleName        *string   `json:"middleName"`
	LastName          *string   `json:"lastName"`
	DateOfBirthString *string   `json:"dateOfBirthString"`
	Mobile            *string   `json:"mobile"`
	Email             *string   `json:"email"`
	Notification      bool      `json:"notification"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(user *User) UserResponse {
	return UserResponse{
		ID:                user.ID,
		UserID:            user.UserID,
		CitizenID:         user.CitizenID,
		FirstName:         user.FirstName,
		MiddleName:        user.MiddleName,
		LastName:          user.LastName,
		DateOfBirthString: user.DateOfBirthString,
		Mobile:            user.Mobile,
		Email:             user.Email,
		Notification:      user.Notification,
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/google/uuid"
)

// Role labels the privilege level mirrored from the identity provider.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// UserStatus is the explicit lifecycle state of a local user record.
// Deletion is a tagged state rather than a nulled column so owned content
// keeps valid foreign keys after an account is removed.
type UserStatus string

const (
	UserActive      UserStatus = "ACTIVE"
	UserDeactivated UserStatus = "DEACTIVATED"
	UserDeleted     UserStatus = "DELETED"
)

// User mirrors an identity-provider account. The ID matches the remote
// provider's user id one-to-one; derived fields are overwritten on every
// authenticated request by the identity bridge.
type User struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Email string `gorm:"index" json:"email"`
	Name  string `json:"name"`

	Role   Role       `gorm:"type:varchar(16);default:'USER'" json:"role"`
	Status UserStatus `gorm:"type:varchar(16);default:'ACTIVE'" json:"status"`

	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`

	Portfolio *Portfolio `gorm:"foreignKey:UserID" json:"portfolio,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate fills an id when the caller did not supply the remote id.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsDeleted reports whether the user has been soft deleted.
func (u *User) IsDeleted() bool {
	return u.Status == UserDeleted
}

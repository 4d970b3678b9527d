package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// User represents an account, keyed in practice by email
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"not null" json:"name"`
	Image        *string    `json:"image,omitempty"`
	PasswordHash string     `json:"-"`                                           // empty for OAuth accounts
	Provider     string     `gorm:"not null;default:'credentials'" json:"provider"` // credentials, google, kakao
	Role         string     `gorm:"not null;default:'user'" json:"role"`            // user or admin
	Status       string     `gorm:"not null;default:'active'" json:"status"`        // active, inactive, suspended
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a document-style identifier
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the account carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

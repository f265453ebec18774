package models

import (
	"time"
)

// UserRole is the authoritative role row. Privileged middleware re-reads it
// on every call; role claims inside tokens are never trusted for
// authorization decisions.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Role      string    `gorm:"size:20;not null;index" json:"role"` // student | coach | admin
	GrantedBy *uint     `json:"granted_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

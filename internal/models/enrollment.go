package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID    string          `gorm:"type:char(36);not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	Status      string          `gorm:"size:20;not null" json:"status"`
	PaidCredits decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_credits"`
	CreatedAt   time.Time       `json:"created_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Course struct {
	ID            string          `gorm:"type:char(36);primaryKey" json:"id"`
	CoachID       uint            `gorm:"not null;index" json:"coach_id"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"size:64;index" json:"category"`
	PriceCredits  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"price_credits"`
	IsFree        bool            `gorm:"not null;default:false" json:"is_free"`
	Status        string          `gorm:"size:20;not null;index" json:"status"` // draft, published, archived
	CoverImageURL string          `gorm:"size:512" json:"cover_image_url"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Coach User `gorm:"foreignKey:CoachID" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

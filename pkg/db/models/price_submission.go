package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceSubmission is a photo-derived price waiting for a household member to
// confirm it.
type PriceSubmission struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	HouseholdCode string     `gorm:"column:household_code;not null;index:price_submissions_household_idx"`
	UserID        *string    `gorm:"column:user_id"`
	Verified      bool       `gorm:"column:verified;not null;default:false"`
	VerifiedAt    *time.Time `gorm:"column:verified_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (PriceSubmission) TableName() string { return "price_submissions" }

func (p *PriceSubmission) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

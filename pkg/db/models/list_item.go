package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListItem is a row on a household shopping list.
type ListItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ItemID        uuid.UUID `gorm:"column:item_id;type:uuid;not null;index:shopping_list_item_id_idx"`
	ItemName      string    `gorm:"column:item_name;not null"`
	Quantity      int       `gorm:"column:quantity;not null;default:1"`
	HouseholdCode string    `gorm:"column:household_code;not null;index:shopping_list_household_checked_idx,priority:1"`
	Checked       bool      `gorm:"column:checked;not null;default:false;index:shopping_list_household_checked_idx,priority:2"`
	AddedAt       time.Time `gorm:"column:added_at;autoCreateTime"`
}

func (ListItem) TableName() string { return "shopping_list" }

func (l *ListItem) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShoppingListEvent is the append-only record of one check-off.
type ShoppingListEvent struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	HouseholdCode string              `gorm:"column:household_code;not null"`
	ItemID        uuid.UUID           `gorm:"column:item_id;type:uuid;not null"`
	ItemName      string              `gorm:"column:item_name;not null"`
	Quantity      int                 `gorm:"column:quantity;not null;default:1"`
	StoreID       uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	Store         string              `gorm:"column:store;not null"`
	TripID        *uuid.UUID          `gorm:"column:trip_id;type:uuid;index:shopping_list_events_trip_id_idx"`
	CheckedAt     *time.Time          `gorm:"column:checked_at"`
	Price         decimal.NullDecimal `gorm:"column:price;type:numeric(10,2)"`
}

func (ShoppingListEvent) TableName() string { return "shopping_list_events" }

func (e *ShoppingListEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

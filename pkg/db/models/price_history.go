package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cartledger/cartledger-backend/pkg/enums"
)

// PriceHistoryRecord is one observed shelf price. Rows are never updated.
type PriceHistoryRecord struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ItemID         uuid.UUID         `gorm:"column:item_id;type:uuid;not null;index:price_history_item_store_date_idx,priority:1"`
	ItemName       string            `gorm:"column:item_name;not null"`
	StoreID        uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index:price_history_item_store_date_idx,priority:2"`
	Store          string            `gorm:"column:store;not null"`
	Price          decimal.Decimal   `gorm:"column:price;type:numeric(10,2);not null"`
	RecordedDate   time.Time         `gorm:"column:recorded_date;type:date;not null;index:price_history_item_store_date_idx,priority:3"`
	HouseholdCode  string            `gorm:"column:household_code;not null"`
	Source         enums.PriceSource `gorm:"column:source;not null"`
	UnitSize       *string           `gorm:"column:unit_size"`
	IsSale         bool              `gorm:"column:is_sale;not null;default:false"`
	SaleExpiration *time.Time        `gorm:"column:sale_expiration;type:date"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (PriceHistoryRecord) TableName() string { return "price_history" }

func (p *PriceHistoryRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

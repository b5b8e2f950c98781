package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TripOpenIndex backs the one-open-trip-per-store invariant.
const TripOpenIndex = "trips_one_open_per_store"

// Trip is one shopping visit for a household at a store. A nil EndedAt means
// the trip is open.
type Trip struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	HouseholdCode string     `gorm:"column:household_code;not null;uniqueIndex:trips_one_open_per_store,priority:1,where:ended_at IS NULL"`
	StoreID       uuid.UUID  `gorm:"column:store_id;type:uuid;not null;uniqueIndex:trips_one_open_per_store,priority:2,where:ended_at IS NULL"`
	Store         string     `gorm:"column:store;not null"`
	StartedAt     time.Time  `gorm:"column:started_at;not null;index:trips_started_at_idx"`
	EndedAt       *time.Time `gorm:"column:ended_at;index:trips_ended_at_idx"`
}

func (Trip) TableName() string { return "trips" }

func (t *Trip) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// IsOpen reports whether the trip has not been ended.
func (t Trip) IsOpen() bool {
	return t.EndedAt == nil
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is a catalog entry shared by every household. NameKey carries the
// case-folded name and is unique.
type Item struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	NameKey   string    `gorm:"column:name_key;not null;uniqueIndex:items_name_key_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Item) TableName() string { return "items" }

func (i *Item) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	if i.NameKey == "" {
		i.NameKey = ItemNameKey(i.Name)
	}
	return nil
}

// ItemNameKey folds a display name into the unique lookup key.
func ItemNameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Store is a grocery store a household shops at.
type Store struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Store) TableName() string { return "stores" }

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

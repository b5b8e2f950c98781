package shoppinglist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartledger/cartledger-backend/pkg/db/models"
)

// Repository exposes persistence helpers for list items and check-off events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.ListItem, error)
	MarkChecked(ctx context.Context, id uuid.UUID) error
	InsertEvent(ctx context.Context, event *models.ShoppingListEvent) error
	CountUncheckedPriced(ctx context.Context, householdCode string, storeID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a shopping list repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.ListItem, error) {
	var item models.ListItem
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) MarkChecked(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ListItem{}).
		Where("id = ?", id).
		Update("checked", true).Error
}

func (r *repositoryImpl) InsertEvent(ctx context.Context, event *models.ShoppingListEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CountUncheckedPriced counts the household's unchecked items that have any
// price recorded at the store.
func (r *repositoryImpl) CountUncheckedPriced(ctx context.Context, householdCode string, storeID uuid.UUID) (int64, error) {
	priced := r.db.Model(&models.PriceHistoryRecord{}).
		Select("item_id").
		Where("store_id = ?", storeID)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ListItem{}).
		Where("UPPER(TRIM(household_code)) = ? AND checked = ?", householdCode, false).
		Where("item_id IN (?)", priced).
		Count(&count).Error
	return count, err
}

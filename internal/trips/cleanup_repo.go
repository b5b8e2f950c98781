package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartledger/cartledger-backend/pkg/db/models"
	"github.com/cartledger/cartledger-backend/pkg/household"
)

// EventKey identifies list items by household and item name.
type EventKey struct {
	HouseholdCode string
	ItemName      string
}

// CleanupRepository backs the stale trip cleanup job.
type CleanupRepository struct {
	db *gorm.DB
}

func NewCleanupRepository(db *gorm.DB) *CleanupRepository {
	return &CleanupRepository{db: db}
}

// ClosedBefore returns trips ended strictly before cutoff.
func (r *CleanupRepository) ClosedBefore(ctx context.Context, cutoff time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.db.WithContext(ctx).
		Where("ended_at IS NOT NULL AND ended_at < ?", cutoff.UTC()).
		Order("ended_at ASC").
		Find(&trips).Error
	return trips, err
}

// CheckedEvents returns the checked-off events of the given trips.
func (r *CleanupRepository) CheckedEvents(ctx context.Context, tripIDs []uuid.UUID) ([]models.ShoppingListEvent, error) {
	if len(tripIDs) == 0 {
		return nil, nil
	}
	var events []models.ShoppingListEvent
	err := r.db.WithContext(ctx).
		Where("trip_id IN ? AND checked_at IS NOT NULL", tripIDs).
		Find(&events).Error
	return events, err
}

// ActiveKeys lists the household/item pairs checked off on trips that are
// still open or closed at or after cutoff.
func (r *CleanupRepository) ActiveKeys(ctx context.Context, cutoff time.Time) (map[EventKey]struct{}, error) {
	active := r.db.Model(&models.Trip{}).
		Select("id").
		Where("ended_at IS NULL OR ended_at >= ?", cutoff.UTC())
	var rows []EventKey
	err := r.db.WithContext(ctx).
		Model(&models.ShoppingListEvent{}).
		Distinct("household_code", "item_name").
		Where("trip_id IN (?)", active).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	keys := make(map[EventKey]struct{}, len(rows))
	for _, row := range rows {
		keys[row] = struct{}{}
	}
	return keys, nil
}

// DeleteChecked removes the household's checked list items with the name.
func (r *CleanupRepository) DeleteChecked(ctx context.Context, key EventKey) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("UPPER(TRIM(household_code)) = ? AND item_name = ? AND checked = ?", household.Normalize(key.HouseholdCode), key.ItemName, true).
		Delete(&models.ListItem{})
	return res.RowsAffected, res.Error
}

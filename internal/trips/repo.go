package trips

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cartledger/cartledger-backend/pkg/db/models"
)

// Repository exposes persistence helpers for trips and their events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	FindOpen(ctx context.Context, householdCode string, storeID uuid.UUID) (*models.Trip, error)
	FindRecentlyClosed(ctx context.Context, householdCode string, storeID uuid.UUID, startedAfter, closedAfter time.Time) (*models.Trip, error)
	Reopen(ctx context.Context, id uuid.UUID) (bool, error)
	End(ctx context.Context, id uuid.UUID, endedAt time.Time) error
	CloseOpen(ctx context.Context, householdCode string, storeID uuid.UUID, endedAt time.Time) (int64, error)
	Create(ctx context.Context, trip *models.Trip) error
	CreateIfNoneOpen(ctx context.Context, trip *models.Trip) (bool, error)
	DeleteCheckedItemsForTrip(ctx context.Context, householdCode string, tripID uuid.UUID) (int64, error)
	DeleteEvents(ctx context.Context, tripID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a trips repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	return takeTrip(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repositoryImpl) FindOpen(ctx context.Context, householdCode string, storeID uuid.UUID) (*models.Trip, error) {
	return takeTrip(r.db.WithContext(ctx).
		Where("household_code = ? AND store_id = ? AND ended_at IS NULL", householdCode, storeID).
		Order("started_at DESC"))
}

// FindRecentlyClosed returns the latest trip that started after startedAfter
// and was closed at or after closedAfter.
func (r *repositoryImpl) FindRecentlyClosed(ctx context.Context, householdCode string, storeID uuid.UUID, startedAfter, closedAfter time.Time) (*models.Trip, error) {
	return takeTrip(r.db.WithContext(ctx).
		Where("household_code = ? AND store_id = ?", householdCode, storeID).
		Where("started_at >= ?", startedAfter.UTC()).
		Where("ended_at IS NOT NULL AND ended_at >= ?", closedAfter.UTC()).
		Order("ended_at DESC"))
}

// Reopen clears ended_at. It reports false when the trip was no longer closed.
func (r *repositoryImpl) Reopen(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("id = ? AND ended_at IS NOT NULL", id).
		Update("ended_at", nil)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repositoryImpl) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("id = ?", id).
		Update("ended_at", endedAt.UTC()).Error
}

func (r *repositoryImpl) CloseOpen(ctx context.Context, householdCode string, storeID uuid.UUID, endedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("household_code = ? AND store_id = ? AND ended_at IS NULL", householdCode, storeID).
		Update("ended_at", endedAt.UTC())
	return res.RowsAffected, res.Error
}

func (r *repositoryImpl) Create(ctx context.Context, trip *models.Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

// CreateIfNoneOpen inserts the trip unless the household already has an open
// trip at the store. It reports whether this call created the row.
func (r *repositoryImpl) CreateIfNoneOpen(ctx context.Context, trip *models.Trip) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "household_code"}, {Name: "store_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "ended_at IS NULL"}}},
			DoNothing:   true,
		}).
		Create(trip)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteCheckedItemsForTrip removes the household's checked list items whose
// item appears in the trip's events.
func (r *repositoryImpl) DeleteCheckedItemsForTrip(ctx context.Context, householdCode string, tripID uuid.UUID) (int64, error) {
	itemIDs := r.db.Model(&models.ShoppingListEvent{}).
		Select("item_id").
		Where("trip_id = ?", tripID)
	res := r.db.WithContext(ctx).
		Where("UPPER(TRIM(household_code)) = ? AND checked = ?", householdCode, true).
		Where("item_id IN (?)", itemIDs).
		Delete(&models.ListItem{})
	return res.RowsAffected, res.Error
}

func (r *repositoryImpl) DeleteEvents(ctx context.Context, tripID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Delete(&models.ShoppingListEvent{})
	return res.RowsAffected, res.Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Trip{})
	return res.RowsAffected, res.Error
}

func takeTrip(query *gorm.DB) (*models.Trip, error) {
	var trip models.Trip
	err := query.Take(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

package prices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartledger/cartledger-backend/pkg/db/models"
)

const keyLookupChunk = 500

// Repository exposes persistence helpers for the price ledger and submissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.PriceSubmission, error)
	MarkSubmissionVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Latest(ctx context.Context, itemID, storeID uuid.UUID) (*models.PriceHistoryRecord, error)
	Insert(ctx context.Context, record *models.PriceHistoryRecord) error
	InsertBatch(ctx context.Context, records []models.PriceHistoryRecord) error
	RecordsForItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.PriceHistoryRecord, error)
	PricedEvents(ctx context.Context) ([]models.ShoppingListEvent, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a prices repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetSubmission(ctx context.Context, id uuid.UUID) (*models.PriceSubmission, error) {
	var submission models.PriceSubmission
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// MarkSubmissionVerified flips a pending submission. It reports false when the
// submission was already verified.
func (r *repositoryImpl) MarkSubmissionVerified(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PriceSubmission{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]any{"verified": true, "verified_at": at.UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repositoryImpl) Latest(ctx context.Context, itemID, storeID uuid.UUID) (*models.PriceHistoryRecord, error) {
	var record models.PriceHistoryRecord
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND store_id = ?", itemID, storeID).
		Order("recorded_date DESC, created_at DESC").
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) Insert(ctx context.Context, record *models.PriceHistoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repositoryImpl) InsertBatch(ctx context.Context, records []models.PriceHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

// RecordsForItems loads the key columns of every record for the given items.
func (r *repositoryImpl) RecordsForItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.PriceHistoryRecord, error) {
	var out []models.PriceHistoryRecord
	for start := 0; start < len(itemIDs); start += keyLookupChunk {
		end := min(start+keyLookupChunk, len(itemIDs))
		var chunk []models.PriceHistoryRecord
		err := r.db.WithContext(ctx).
			Select("item_id", "store_id", "price", "recorded_date").
			Where("item_id IN ?", itemIDs[start:end]).
			Find(&chunk).Error
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// PricedEvents returns every checked-off event that captured a price.
func (r *repositoryImpl) PricedEvents(ctx context.Context) ([]models.ShoppingListEvent, error) {
	var events []models.ShoppingListEvent
	err := r.db.WithContext(ctx).
		Where("price IS NOT NULL AND checked_at IS NOT NULL").
		Order("checked_at ASC").
		Find(&events).Error
	return events, err
}

package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cartledger/cartledger-backend/pkg/db/models"
)

// Repository exposes persistence helpers for items and stores.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItemByName(ctx context.Context, name string) (*models.Item, error)
	InsertItemIfAbsent(ctx context.Context, item *models.Item) (bool, error)
	GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindStoreByName(ctx context.Context, name string) (*models.Store, error)
	CreateStore(ctx context.Context, store *models.Store) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// FindItemByName matches on the case-folded name key. A missing item returns
// nil without error.
func (r *repositoryImpl) FindItemByName(ctx context.Context, name string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("name_key = ?", models.ItemNameKey(name)).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItemIfAbsent inserts the item unless another row already owns its
// name key. It reports whether this call created the row.
func (r *repositoryImpl) InsertItemIfAbsent(ctx context.Context, item *models.Item) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name_key"}},
			DoNothing: true,
		}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repositoryImpl) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repositoryImpl) FindStoreByName(ctx context.Context, name string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("created_at ASC").
		Take(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repositoryImpl) CreateStore(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

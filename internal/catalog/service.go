package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/cartledger/cartledger-backend/pkg/db/models"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

const defaultStoreTTL = 10 * time.Minute

// Service resolves catalog items and stores for the price and list flows.
type Service interface {
	FindItem(ctx context.Context, name string) (*models.Item, error)
	ResolveItem(ctx context.Context, name string) (*models.Item, error)
	Store(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ResolveStore(ctx context.Context, name string) (*models.Store, error)
}

type ServiceParams struct {
	Repository Repository
	Logger     *logger.Logger
	StoreTTL   time.Duration
}

type service struct {
	repo   Repository
	logg   *logger.Logger
	stores *gocache.Cache
}

// NewService wires the catalog service. Stores are cached by id for StoreTTL
// since their names are read on every check-off.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	ttl := params.StoreTTL
	if ttl <= 0 {
		ttl = defaultStoreTTL
	}
	return &service{
		repo:   params.Repository,
		logg:   params.Logger,
		stores: gocache.New(ttl, 2*ttl),
	}, nil
}

func (s *service) FindItem(ctx context.Context, name string) (*models.Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.Validation("item_name is required")
	}
	item, err := s.repo.FindItemByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup item")
	}
	return item, nil
}

// ResolveItem returns the item whose name matches case-insensitively,
// creating it when none exists. Concurrent callers converge on one row.
func (s *service) ResolveItem(ctx context.Context, name string) (*models.Item, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, pkgerrors.Validation("item_name is required")
	}
	existing, err := s.FindItem(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	item := &models.Item{Name: name}
	created, err := s.repo.InsertItemIfAbsent(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create item")
	}
	if created {
		s.logg.Debug(s.logg.WithField(ctx, "item_id", item.ID.String()), "catalog item created")
		return item, nil
	}

	winner, err := s.FindItem(ctx, name)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "item vanished after conflicting insert")
	}
	return winner, nil
}

// Store returns the store or a not-found error.
func (s *service) Store(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.Validation("store_id is required")
	}
	if cached, ok := s.stores.Get(id.String()); ok {
		store := cached.(models.Store)
		return &store, nil
	}
	store, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup store")
	}
	if store == nil {
		return nil, pkgerrors.NotFound("store %s not found", id)
	}
	s.stores.SetDefault(id.String(), *store)
	return store, nil
}

// ResolveStore matches a store by case-insensitive name, creating it when
// the household has not shopped there before.
func (s *service) ResolveStore(ctx context.Context, name string) (*models.Store, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, pkgerrors.Validation("store name is required")
	}
	store, err := s.repo.FindStoreByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup store by name")
	}
	if store == nil {
		store = &models.Store{Name: name}
		if err := s.repo.CreateStore(ctx, store); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create store")
		}
		s.logg.Info(s.logg.WithStoreID(ctx, store.ID.String()), "store created")
	}
	s.stores.SetDefault(store.ID.String(), *store)
	return store, nil
}

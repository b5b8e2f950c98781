package shoppinglist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cartledger/cartledger-backend/internal/prices"
	"github.com/cartledger/cartledger-backend/internal/trips"
	"github.com/cartledger/cartledger-backend/pkg/db/models"
	"github.com/cartledger/cartledger-backend/pkg/enums"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/household"
	"github.com/cartledger/cartledger-backend/pkg/logger"
	"github.com/cartledger/cartledger-backend/pkg/metrics"
)

// Secondary check-off steps. A failure in any of them is recorded on the
// result and never fails the request.
const (
	StepStoreLookup     = "store_lookup"
	StepPriceLookup     = "price_lookup"
	StepTripResolve     = "trip_resolve"
	StepLogEvent        = "log_event"
	StepImplicitConfirm = "implicit_confirm"
	StepPricedCount     = "priced_count"
)

// Service checks items off a household shopping list.
type Service interface {
	CheckItem(ctx context.Context, input CheckItemInput) (*CheckItemResult, error)
}

type storeLookup interface {
	Store(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type tripResolver interface {
	ResolveForCheckOff(ctx context.Context, householdCode string, store models.Store) (*trips.Resolution, error)
}

type priceBook interface {
	CurrentPrice(ctx context.Context, itemID, storeID uuid.UUID) (decimal.NullDecimal, error)
	Record(ctx context.Context, obs prices.Observation) (*models.PriceHistoryRecord, error)
}

type CheckItemInput struct {
	ShoppingListID uuid.UUID
	StoreID        *uuid.UUID
	LastTripID     *uuid.UUID
}

// StepFailure names a secondary step that failed after the item was checked.
type StepFailure struct {
	Step string
	Err  error
}

// CheckItemResult reports the trip the check-off was attributed to. TripID is
// nil when no store was given or the trip could not be resolved.
type CheckItemResult struct {
	TripID          *uuid.UUID
	TripCreated     bool
	Resolution      enums.TripResolution
	Price           decimal.NullDecimal
	PricedUnchecked int64
	Degraded        []StepFailure
}

// DegradedSteps lists the failed step names in order.
func (r *CheckItemResult) DegradedSteps() []string {
	if r == nil || len(r.Degraded) == 0 {
		return nil
	}
	steps := make([]string, 0, len(r.Degraded))
	for _, f := range r.Degraded {
		steps = append(steps, f.Step)
	}
	return steps
}

type ServiceParams struct {
	Repository Repository
	Stores     storeLookup
	Trips      tripResolver
	Prices     priceBook
	Logger     *logger.Logger
	Metrics    *metrics.CheckOffMetrics
	Now        func() time.Time
}

type service struct {
	repo    Repository
	stores  storeLookup
	trips   tripResolver
	prices  priceBook
	logg    *logger.Logger
	metrics *metrics.CheckOffMetrics
	now     func() time.Time
}

// NewService wires check-off dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopping list repository required")
	}
	if params.Stores == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store lookup required")
	}
	if params.Trips == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trip resolver required")
	}
	if params.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "price book required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repository,
		stores:  params.Stores,
		trips:   params.Trips,
		prices:  params.Prices,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// CheckItem marks the list item checked and, when a store is given, snapshots
// the current price, attributes the check-off to a trip, logs the event and
// re-records the known price for today. Only the item lookup and the checked
// update can fail the call.
func (s *service) CheckItem(ctx context.Context, input CheckItemInput) (*CheckItemResult, error) {
	if input.ShoppingListID == uuid.Nil {
		return nil, pkgerrors.Validation("shopping_list_id is required")
	}

	item, err := s.repo.Get(ctx, input.ShoppingListID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup shopping list item")
	}
	if item == nil {
		return nil, pkgerrors.NotFound("shopping list item %s not found", input.ShoppingListID)
	}
	if err := s.repo.MarkChecked(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark item checked")
	}
	code := household.Normalize(item.HouseholdCode)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"household_code":   code,
		"shopping_list_id": item.ID.String(),
		"item_id":          item.ItemID.String(),
	})
	result := &CheckItemResult{}

	if input.StoreID == nil || *input.StoreID == uuid.Nil {
		s.logg.Info(ctx, "item checked without store context")
		s.metrics.IncCheckOff("none")
		return result, nil
	}
	storeID := *input.StoreID
	ctx = s.logg.WithStoreID(ctx, storeID.String())

	store, err := s.stores.Store(ctx, storeID)
	if err != nil {
		s.degrade(ctx, result, StepStoreLookup, err)
		s.metrics.IncCheckOff("none")
		return result, nil
	}

	price, err := s.prices.CurrentPrice(ctx, item.ItemID, store.ID)
	if err != nil {
		s.degrade(ctx, result, StepPriceLookup, err)
		price = decimal.NullDecimal{}
	}
	result.Price = price

	resolution, err := s.trips.ResolveForCheckOff(ctx, code, *store)
	if err != nil {
		s.degrade(ctx, result, StepTripResolve, err)
	} else {
		tripID := resolution.Trip.ID
		result.TripID = &tripID
		result.Resolution = resolution.Result
		result.TripCreated = input.LastTripID == nil || *input.LastTripID != tripID
		ctx = s.logg.WithTripID(ctx, tripID.String())
	}

	now := s.now().UTC()
	event := &models.ShoppingListEvent{
		HouseholdCode: code,
		ItemID:        item.ItemID,
		ItemName:      item.ItemName,
		Quantity:      item.Quantity,
		StoreID:       store.ID,
		Store:         store.Name,
		TripID:        result.TripID,
		CheckedAt:     &now,
		Price:         price,
	}
	if err := s.repo.InsertEvent(ctx, event); err != nil {
		s.degrade(ctx, result, StepLogEvent, err)
	}

	if price.Valid {
		_, err := s.prices.Record(ctx, prices.Observation{
			HouseholdCode: code,
			ItemID:        item.ItemID,
			ItemName:      item.ItemName,
			StoreID:       store.ID,
			Store:         store.Name,
			Price:         price.Decimal,
			Source:        enums.PriceSourceCheckOff,
		})
		if err != nil {
			s.degrade(ctx, result, StepImplicitConfirm, err)
		}
	}

	// diagnostic only; trips are closed explicitly
	remaining, err := s.repo.CountUncheckedPriced(ctx, code, store.ID)
	if err != nil {
		s.degrade(ctx, result, StepPricedCount, err)
	} else {
		result.PricedUnchecked = remaining
	}

	resolved := "none"
	if result.Resolution != "" {
		resolved = result.Resolution.String()
	}
	s.metrics.IncCheckOff(resolved)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"trip_resolution":  resolved,
		"price_known":      price.Valid,
		"priced_unchecked": result.PricedUnchecked,
		"degraded_steps":   result.DegradedSteps(),
	}), "item checked")
	return result, nil
}

func (s *service) degrade(ctx context.Context, result *CheckItemResult, step string, err error) {
	result.Degraded = append(result.Degraded, StepFailure{Step: step, Err: err})
	s.metrics.IncDegraded(step)
	s.logg.WarnErr(s.logg.WithField(ctx, "step", step), "check-off step failed", err)
}

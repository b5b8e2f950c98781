package receipts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cartledger/cartledger-backend/internal/prices"
	"github.com/cartledger/cartledger-backend/pkg/calendar"
	"github.com/cartledger/cartledger-backend/pkg/db/models"
	"github.com/cartledger/cartledger-backend/pkg/enums"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/household"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

const defaultMaxItems = 200

// Service imports receipts captured by external tools into the price ledger.
type Service interface {
	Import(ctx context.Context, input ImportInput) (*ImportResult, error)
}

type catalogResolver interface {
	ResolveItem(ctx context.Context, name string) (*models.Item, error)
	ResolveStore(ctx context.Context, name string) (*models.Store, error)
}

type priceRecorder interface {
	RecordIfAbsent(ctx context.Context, obs prices.Observation) (bool, error)
}

type ImportInput struct {
	HouseholdCode string
	Source        string
	Store         string
	Date          string
	Items         []Line
}

type Line struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	SKU      string
}

// LineResult reports one receipt line. Recorded is false when the price was
// already in the ledger for that day or no store was given.
type LineResult struct {
	Name     string
	ItemID   uuid.UUID
	Price    decimal.Decimal
	Quantity int
	Recorded bool
}

type ImportResult struct {
	Source   string
	StoreID  *uuid.UUID
	Date     time.Time
	Imported int
	Skipped  int
	Items    []LineResult
}

type ServiceParams struct {
	Catalog  catalogResolver
	Prices   priceRecorder
	Logger   *logger.Logger
	Location *time.Location
	MaxItems int
	Now      func() time.Time
}

type service struct {
	catalog  catalogResolver
	prices   priceRecorder
	logg     *logger.Logger
	loc      *time.Location
	maxItems int
	now      func() time.Time
}

// NewService wires receipt import dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog required")
	}
	if params.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "price recorder required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	maxItems := params.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		catalog:  params.Catalog,
		prices:   params.Prices,
		logg:     params.Logger,
		loc:      loc,
		maxItems: maxItems,
		now:      now,
	}, nil
}

func (s *service) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	code := household.Normalize(input.HouseholdCode)
	date, err := s.validate(code, input)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Source: strings.TrimSpace(input.Source),
		Date:   date,
		Items:  make([]LineResult, 0, len(input.Items)),
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"household_code": code,
		"receipt_source": result.Source,
		"lines":          len(input.Items),
	})

	var store *models.Store
	if name := strings.TrimSpace(input.Store); name != "" {
		store, err = s.catalog.ResolveStore(ctx, name)
		if err != nil {
			return nil, err
		}
		result.StoreID = &store.ID
	}

	for _, line := range input.Items {
		item, err := s.catalog.ResolveItem(ctx, line.Name)
		if err != nil {
			return nil, err
		}
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		lr := LineResult{Name: item.Name, ItemID: item.ID, Price: line.Price.Round(2), Quantity: qty}
		if store != nil {
			recorded, err := s.prices.RecordIfAbsent(ctx, prices.Observation{
				HouseholdCode: code,
				ItemID:        item.ID,
				ItemName:      item.Name,
				StoreID:       store.ID,
				Store:         store.Name,
				Price:         line.Price,
				RecordedDate:  date,
				Source:        enums.PriceSourceReceipt,
			})
			if err != nil {
				return nil, err
			}
			lr.Recorded = recorded
		}
		if lr.Recorded {
			result.Imported++
		} else {
			result.Skipped++
		}
		result.Items = append(result.Items, lr)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}), "receipt imported")
	return result, nil
}

func (s *service) validate(code string, input ImportInput) (time.Time, error) {
	if code == "" {
		return time.Time{}, pkgerrors.Validation("%s header is required", household.Header)
	}
	if strings.TrimSpace(input.Source) == "" {
		return time.Time{}, pkgerrors.Validation("source is required")
	}
	if len(input.Items) == 0 {
		return time.Time{}, pkgerrors.Validation("items must not be empty")
	}
	if len(input.Items) > s.maxItems {
		return time.Time{}, pkgerrors.Validation("a receipt may carry at most %d items", s.maxItems)
	}
	for i, line := range input.Items {
		if strings.TrimSpace(line.Name) == "" {
			return time.Time{}, pkgerrors.Validation("items[%d].name is required", i)
		}
		if line.Price.IsNegative() {
			return time.Time{}, pkgerrors.Validation("items[%d].price must not be negative", i)
		}
	}
	if strings.TrimSpace(input.Date) == "" {
		return calendar.Date(s.now(), s.loc), nil
	}
	date, err := calendar.ParseDate(strings.TrimSpace(input.Date))
	if err != nil {
		return time.Time{}, pkgerrors.Validation("date must be formatted YYYY-MM-DD")
	}
	return date, nil
}

package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cartledger/cartledger-backend/pkg/calendar"
	"github.com/cartledger/cartledger-backend/pkg/db/models"
	"github.com/cartledger/cartledger-backend/pkg/enums"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/household"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

const defaultBatchSize = 100

// Service is the append-only price ledger.
type Service interface {
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
	Latest(ctx context.Context, input LatestInput) (*LatestPrice, error)
	CurrentPrice(ctx context.Context, itemID, storeID uuid.UUID) (decimal.NullDecimal, error)
	Record(ctx context.Context, obs Observation) (*models.PriceHistoryRecord, error)
	RecordIfAbsent(ctx context.Context, obs Observation) (bool, error)
	Backfill(ctx context.Context) (*BackfillResult, error)
}

type catalogLookup interface {
	FindItem(ctx context.Context, name string) (*models.Item, error)
	ResolveItem(ctx context.Context, name string) (*models.Item, error)
	Store(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Observation is one price seen for an item at a store. A zero RecordedDate
// means today.
type Observation struct {
	HouseholdCode  string
	ItemID         uuid.UUID
	ItemName       string
	StoreID        uuid.UUID
	Store          string
	Price          decimal.Decimal
	RecordedDate   time.Time
	Source         enums.PriceSource
	UnitSize       *string
	IsSale         bool
	SaleExpiration *time.Time
}

type ConfirmInput struct {
	HouseholdCode  string
	SubmissionID   uuid.UUID
	ItemName       string
	Price          decimal.Decimal
	StoreID        uuid.UUID
	UnitSize       *string
	IsSale         bool
	SaleExpiration *time.Time
}

type ConfirmResult struct {
	Record       models.PriceHistoryRecord
	SubmissionID uuid.UUID
}

type LatestInput struct {
	HouseholdCode string
	ItemName      string
	StoreID       uuid.UUID
}

// LatestPrice is empty when the item has no recorded price at the store.
type LatestPrice struct {
	Price        *decimal.Decimal
	RecordedDate *time.Time
	DaysAgo      *int
}

type BackfillResult struct {
	EventsScanned    int `json:"events_scanned"`
	Candidates       int `json:"candidates"`
	DuplicateEvents  int `json:"duplicate_events"`
	AlreadyRecorded  int `json:"already_recorded"`
	Inserted         int `json:"inserted"`
	BatchesCommitted int `json:"batches_committed"`
}

type ServiceParams struct {
	Repository Repository
	Catalog    catalogLookup
	Logger     *logger.Logger
	Location   *time.Location
	BatchSize  int
	Now        func() time.Time
}

type service struct {
	repo      Repository
	catalog   catalogLookup
	logg      *logger.Logger
	loc       *time.Location
	batchSize int
	now       func() time.Time
}

// NewService wires price ledger dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "prices repository required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repository,
		catalog:   params.Catalog,
		logg:      params.Logger,
		loc:       loc,
		batchSize: batch,
		now:       now,
	}, nil
}

// Confirm records a household-confirmed photo price and marks the submission
// verified. Nothing is written unless the submission belongs to the household.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	code := household.Normalize(input.HouseholdCode)
	switch {
	case code == "":
		return nil, pkgerrors.Validation("%s header is required", household.Header)
	case input.SubmissionID == uuid.Nil:
		return nil, pkgerrors.Validation("submission_id is required")
	case strings.TrimSpace(input.ItemName) == "":
		return nil, pkgerrors.Validation("item_name is required")
	case input.StoreID == uuid.Nil:
		return nil, pkgerrors.Validation("store_id is required")
	case !input.Price.IsPositive():
		return nil, pkgerrors.Validation("price must be greater than zero")
	}

	submission, err := s.repo.GetSubmission(ctx, input.SubmissionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup price submission")
	}
	if submission == nil || household.Normalize(submission.HouseholdCode) != code {
		return nil, pkgerrors.NotFound("price submission %s not found", input.SubmissionID)
	}
	if submission.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "price submission already confirmed").
			WithDetails(map[string]any{"submission_id": submission.ID.String()})
	}

	store, err := s.catalog.Store(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	item, err := s.catalog.ResolveItem(ctx, input.ItemName)
	if err != nil {
		return nil, err
	}

	record, err := s.Record(ctx, Observation{
		HouseholdCode:  code,
		ItemID:         item.ID,
		ItemName:       item.Name,
		StoreID:        store.ID,
		Store:          store.Name,
		Price:          input.Price,
		Source:         enums.PriceSourcePhoto,
		UnitSize:       input.UnitSize,
		IsSale:         input.IsSale,
		SaleExpiration: input.SaleExpiration,
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"household_code": code,
		"submission_id":  submission.ID.String(),
		"price_id":       record.ID.String(),
	})
	verified, err := s.repo.MarkSubmissionVerified(ctx, submission.ID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark submission verified")
	}
	if !verified {
		s.logg.Warn(ctx, "price submission was verified concurrently")
	}
	s.logg.Info(ctx, "photo price confirmed")
	return &ConfirmResult{Record: *record, SubmissionID: submission.ID}, nil
}

// Latest returns the most recent price for the item at the store.
func (s *service) Latest(ctx context.Context, input LatestInput) (*LatestPrice, error) {
	if household.Normalize(input.HouseholdCode) == "" {
		return nil, pkgerrors.Validation("%s header is required", household.Header)
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.Validation("store_id is required")
	}
	item, err := s.catalog.FindItem(ctx, input.ItemName)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return &LatestPrice{}, nil
	}
	record, err := s.repo.Latest(ctx, item.ID, input.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup latest price")
	}
	if record == nil {
		return &LatestPrice{}, nil
	}
	price := record.Price
	recorded := record.RecordedDate
	days := calendar.DaysBetween(recorded, calendar.Date(s.now(), s.loc))
	return &LatestPrice{Price: &price, RecordedDate: &recorded, DaysAgo: &days}, nil
}

// CurrentPrice is the latest recorded price for an item at a store, or null.
func (s *service) CurrentPrice(ctx context.Context, itemID, storeID uuid.UUID) (decimal.NullDecimal, error) {
	record, err := s.repo.Latest(ctx, itemID, storeID)
	if err != nil {
		return decimal.NullDecimal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup current price")
	}
	if record == nil {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(record.Price), nil
}

// Record appends the observation to the ledger.
func (s *service) Record(ctx context.Context, obs Observation) (*models.PriceHistoryRecord, error) {
	record, err := s.recordFor(obs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert price history")
	}
	return record, nil
}

// RecordIfAbsent appends the observation unless the same item, store, price
// and day is already recorded. It reports whether a row was written.
func (s *service) RecordIfAbsent(ctx context.Context, obs Observation) (bool, error) {
	record, err := s.recordFor(obs)
	if err != nil {
		return false, err
	}
	existing, err := s.repo.RecordsForItems(ctx, []uuid.UUID{record.ItemID})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup recorded prices")
	}
	key := keyOf(*record)
	for _, rec := range existing {
		if keyOf(rec) == key {
			return false, nil
		}
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert price history")
	}
	return true, nil
}

func (s *service) recordFor(obs Observation) (*models.PriceHistoryRecord, error) {
	if obs.ItemID == uuid.Nil || obs.StoreID == uuid.Nil {
		return nil, pkgerrors.Validation("item and store are required to record a price")
	}
	if obs.Price.IsNegative() {
		return nil, pkgerrors.Validation("price must not be negative")
	}
	if !obs.Source.IsValid() {
		return nil, pkgerrors.Validation("unknown price source %q", obs.Source)
	}
	date := obs.RecordedDate
	if date.IsZero() {
		date = calendar.Date(s.now(), s.loc)
	}
	return &models.PriceHistoryRecord{
		ItemID:         obs.ItemID,
		ItemName:       obs.ItemName,
		StoreID:        obs.StoreID,
		Store:          obs.Store,
		Price:          obs.Price.Round(2),
		RecordedDate:   date,
		HouseholdCode:  household.Normalize(obs.HouseholdCode),
		Source:         obs.Source,
		UnitSize:       obs.UnitSize,
		IsSale:         obs.IsSale,
		SaleExpiration: obs.SaleExpiration,
	}, nil
}

// Backfill derives ledger rows from the check-off event log. Candidates are
// deduplicated among themselves and against recorded prices, then inserted in
// batches; the first failed batch aborts the run.
func (s *service) Backfill(ctx context.Context) (*BackfillResult, error) {
	events, err := s.repo.PricedEvents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scan shopping list events")
	}
	result := &BackfillResult{EventsScanned: len(events)}

	seen := make(map[string]struct{}, len(events))
	candidates := make([]models.PriceHistoryRecord, 0, len(events))
	itemSet := map[uuid.UUID]struct{}{}
	for _, ev := range events {
		if !ev.Price.Valid || ev.CheckedAt == nil {
			continue
		}
		rec := models.PriceHistoryRecord{
			ItemID:        ev.ItemID,
			ItemName:      ev.ItemName,
			StoreID:       ev.StoreID,
			Store:         ev.Store,
			Price:         ev.Price.Decimal.Round(2),
			RecordedDate:  calendar.Date(*ev.CheckedAt, s.loc),
			HouseholdCode: ev.HouseholdCode,
			Source:        enums.PriceSourceBackfill,
		}
		key := keyOf(rec)
		if _, dup := seen[key]; dup {
			result.DuplicateEvents++
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, rec)
		itemSet[rec.ItemID] = struct{}{}
	}
	result.Candidates = len(candidates)

	itemIDs := make([]uuid.UUID, 0, len(itemSet))
	for id := range itemSet {
		itemIDs = append(itemIDs, id)
	}
	existing, err := s.repo.RecordsForItems(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recorded prices")
	}
	recorded := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		recorded[keyOf(rec)] = struct{}{}
	}

	pending := candidates[:0]
	for _, rec := range candidates {
		if _, ok := recorded[keyOf(rec)]; ok {
			result.AlreadyRecorded++
			continue
		}
		pending = append(pending, rec)
	}

	for start := 0; start < len(pending); start += s.batchSize {
		end := min(start+s.batchSize, len(pending))
		if err := s.repo.InsertBatch(ctx, pending[start:end]); err != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err,
				fmt.Sprintf("insert backfill batch %d", result.BatchesCommitted+1))
		}
		result.BatchesCommitted++
		result.Inserted += end - start
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"events_scanned":   result.EventsScanned,
		"candidates":       result.Candidates,
		"already_recorded": result.AlreadyRecorded,
		"inserted":         result.Inserted,
	})
	s.logg.Info(logCtx, "price history backfill complete")
	return result, nil
}

// keyOf is the logical identity of a ledger row.
func keyOf(rec models.PriceHistoryRecord) string {
	return rec.ItemID.String() + "|" + rec.StoreID.String() + "|" +
		rec.Price.Round(2).StringFixed(2) + "|" + calendar.Key(rec.RecordedDate)
}

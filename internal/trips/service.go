package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cartledger/cartledger-backend/pkg/calendar"
	"github.com/cartledger/cartledger-backend/pkg/db"
	"github.com/cartledger/cartledger-backend/pkg/db/models"
	"github.com/cartledger/cartledger-backend/pkg/enums"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/household"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

const defaultReopenGrace = 30 * time.Minute

// Service manages the trip lifecycle for a household at a store.
type Service interface {
	ResolveForCheckOff(ctx context.Context, householdCode string, store models.Store) (*Resolution, error)
	Start(ctx context.Context, input StartInput) (*models.Trip, error)
	End(ctx context.Context, input EndInput) (*EndResult, error)
	Delete(ctx context.Context, tripID uuid.UUID) error
}

type storeLookup interface {
	Store(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Resolution is the trip a check-off was attributed to and how it was found.
type Resolution struct {
	Trip   models.Trip
	Result enums.TripResolution
}

type StartInput struct {
	HouseholdCode string
	StoreID       uuid.UUID
}

type EndInput struct {
	HouseholdCode string
	StoreID       uuid.UUID
	TripID        uuid.UUID
}

// EndResult reports the closed trip. CleanupErr carries a failed list cleanup,
// which does not fail the close.
type EndResult struct {
	Trip         models.Trip
	ItemsCleared int64
	CleanupErr   error
}

type ServiceParams struct {
	Repository  Repository
	Stores      storeLookup
	TxRunner    db.TxRunner
	Logger      *logger.Logger
	Location    *time.Location
	ReopenGrace time.Duration
	Now         func() time.Time
}

type service struct {
	repo        Repository
	stores      storeLookup
	tx          db.TxRunner
	logg        *logger.Logger
	loc         *time.Location
	reopenGrace time.Duration
	now         func() time.Time
}

// NewService wires trips dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trips repository required")
	}
	if params.Stores == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store lookup required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	grace := params.ReopenGrace
	if grace <= 0 {
		grace = defaultReopenGrace
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repository,
		stores:      params.Stores,
		tx:          params.TxRunner,
		logg:        params.Logger,
		loc:         loc,
		reopenGrace: grace,
		now:         now,
	}, nil
}

// ResolveForCheckOff returns today's open trip, re-opens one closed within
// the grace window, or creates a new one.
func (s *service) ResolveForCheckOff(ctx context.Context, householdCode string, store models.Store) (*Resolution, error) {
	householdCode = household.Normalize(householdCode)
	if householdCode == "" {
		return nil, pkgerrors.Validation("household_code is required")
	}
	if store.ID == uuid.Nil {
		return nil, pkgerrors.Validation("store_id is required")
	}

	now := s.now().UTC()
	dayStart := calendar.DayStart(now, s.loc)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"household_code": householdCode,
		"store_id":       store.ID.String(),
	})

	open, err := s.repo.FindOpen(ctx, householdCode, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open trip")
	}
	if open != nil {
		if !open.StartedAt.Before(dayStart) {
			return &Resolution{Trip: *open, Result: enums.TripResolutionExisting}, nil
		}
		// left open overnight; close it so today's trip can be opened
		if err := s.repo.End(ctx, open.ID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close stale trip")
		}
		s.logg.Info(s.logg.WithTripID(ctx, open.ID.String()), "closed trip left open from a previous day")
	}

	recent, err := s.repo.FindRecentlyClosed(ctx, householdCode, store.ID, dayStart, now.Add(-s.reopenGrace))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup recently closed trip")
	}
	if recent != nil {
		reopened, err := s.repo.Reopen(ctx, recent.ID)
		switch {
		case err != nil && db.IsUniqueViolation(err, models.TripOpenIndex):
			// another request opened a trip first
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reopen trip")
		case reopened:
			recent.EndedAt = nil
			s.logg.Info(s.logg.WithTripID(ctx, recent.ID.String()), "trip reopened within grace window")
			return &Resolution{Trip: *recent, Result: enums.TripResolutionReopened}, nil
		}
	}

	trip := &models.Trip{
		HouseholdCode: householdCode,
		StoreID:       store.ID,
		Store:         store.Name,
		StartedAt:     now,
	}
	created, err := s.repo.CreateIfNoneOpen(ctx, trip)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create trip")
	}
	if created {
		s.logg.Info(s.logg.WithTripID(ctx, trip.ID.String()), "trip created")
		return &Resolution{Trip: *trip, Result: enums.TripResolutionCreated}, nil
	}

	winner, err := s.repo.FindOpen(ctx, householdCode, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open trip after conflict")
	}
	if winner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "open trip vanished after conflicting insert")
	}
	return &Resolution{Trip: *winner, Result: enums.TripResolutionExisting}, nil
}

// Start closes any open trip for the household at the store and opens a new one.
func (s *service) Start(ctx context.Context, input StartInput) (*models.Trip, error) {
	code := household.Normalize(input.HouseholdCode)
	if code == "" {
		return nil, pkgerrors.Validation("household_code is required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.Validation("store_id is required")
	}
	store, err := s.stores.Store(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	trip := &models.Trip{
		HouseholdCode: code,
		StoreID:       store.ID,
		Store:         store.Name,
		StartedAt:     now,
	}
	var closed int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		n, err := repo.CloseOpen(ctx, code, store.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close open trips")
		}
		closed = n
		if err := repo.Create(ctx, trip); err != nil {
			if db.IsUniqueViolation(err, models.TripOpenIndex) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a trip was started concurrently for this store")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create trip")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"household_code": code,
		"store_id":       store.ID.String(),
		"trip_id":        trip.ID.String(),
		"trips_closed":   closed,
	})
	s.logg.Info(logCtx, "trip started")
	return trip, nil
}

// End closes the trip and then clears the household's checked items bought
// on it. A failed clear is reported on the result only.
func (s *service) End(ctx context.Context, input EndInput) (*EndResult, error) {
	code := household.Normalize(input.HouseholdCode)
	if input.TripID == uuid.Nil {
		return nil, pkgerrors.Validation("trip_id is required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.Validation("store_id is required")
	}
	if code == "" {
		return nil, pkgerrors.Validation("household_code is required")
	}

	trip, err := s.repo.Get(ctx, input.TripID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup trip")
	}
	if trip == nil || trip.HouseholdCode != code || trip.StoreID != input.StoreID {
		return nil, pkgerrors.NotFound("trip %s not found", input.TripID)
	}

	now := s.now().UTC()
	if err := s.repo.End(ctx, trip.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "end trip")
	}
	trip.EndedAt = &now
	result := &EndResult{Trip: *trip}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"household_code": code,
		"trip_id":        trip.ID.String(),
	})
	cleared, err := s.repo.DeleteCheckedItemsForTrip(ctx, code, trip.ID)
	if err != nil {
		result.CleanupErr = err
		s.logg.WarnErr(ctx, "trip ended but checked items were not cleared", err)
	} else {
		result.ItemsCleared = cleared
	}
	s.logg.Info(s.logg.WithField(ctx, "items_cleared", result.ItemsCleared), "trip ended")
	return result, nil
}

// Delete removes the trip's events and then the trip in one transaction.
func (s *service) Delete(ctx context.Context, tripID uuid.UUID) error {
	if tripID == uuid.Nil {
		return pkgerrors.Validation("trip_id is required")
	}
	var events int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		trip, err := repo.Get(ctx, tripID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup trip")
		}
		if trip == nil {
			return pkgerrors.NotFound("trip %s not found", tripID)
		}
		n, err := repo.DeleteEvents(ctx, tripID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete trip events")
		}
		events = n
		if _, err := repo.Delete(ctx, tripID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete trip")
		}
		return nil
	})
	if err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"trip_id":        tripID.String(),
		"events_deleted": events,
	})
	s.logg.Info(logCtx, "trip deleted")
	return nil
}

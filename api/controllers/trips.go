package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cartledger/cartledger-backend/api/responses"
	"github.com/cartledger/cartledger-backend/api/validators"
	"github.com/cartledger/cartledger-backend/internal/trips"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
	"github.com/cartledger/cartledger-backend/pkg/types"
)

type tripStartRequest struct {
	StoreID       string `json:"store_id" validate:"required"`
	HouseholdCode string `json:"household_code" validate:"required"`
}

type tripStartResponse struct {
	Success   bool      `json:"success"`
	TripID    uuid.UUID `json:"trip_id"`
	Store     string    `json:"store"`
	StartedAt time.Time `json:"started_at"`
}

type tripEndRequest struct {
	TripID        string `json:"trip_id" validate:"required"`
	StoreID       string `json:"store_id" validate:"required"`
	HouseholdCode string `json:"household_code" validate:"required"`
}

type tripEndResponse struct {
	Success      bool       `json:"success"`
	TripID       uuid.UUID  `json:"trip_id"`
	EndedAt      *time.Time `json:"ended_at"`
	ItemsCleared int64      `json:"items_cleared"`
}

type tripDeleteRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

// TripStart closes any open trip for the household at the store and opens a
// new one.
func TripStart(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		var body tripStartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := parseUUID("store_id", body.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		trip, err := svc.Start(r.Context(), trips.StartInput{
			HouseholdCode: body.HouseholdCode,
			StoreID:       storeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tripStartResponse{
			Success:   true,
			TripID:    trip.ID,
			Store:     trip.Store,
			StartedAt: trip.StartedAt,
		})
	}
}

// TripEnd closes a trip and clears the items checked during it.
func TripEnd(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		var body tripEndRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tripID, err := parseUUID("trip_id", body.TripID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := parseUUID("store_id", body.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.End(r.Context(), trips.EndInput{
			HouseholdCode: body.HouseholdCode,
			StoreID:       storeID,
			TripID:        tripID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tripEndResponse{
			Success:      true,
			TripID:       result.Trip.ID,
			EndedAt:      result.Trip.EndedAt,
			ItemsCleared: result.ItemsCleared,
		})
	}
}

// TripDelete removes a trip and its check-off events.
func TripDelete(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trip service unavailable"))
			return
		}

		var body tripDeleteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tripID, err := parseUUID("trip_id", body.TripID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), tripID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.StatusEnvelope{Success: true})
	}
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cartledger/cartledger-backend/api/responses"
	"github.com/cartledger/cartledger-backend/api/validators"
	"github.com/cartledger/cartledger-backend/internal/shoppinglist"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

type checkItemRequest struct {
	ShoppingListID string  `json:"shopping_list_id" validate:"required"`
	StoreID        *string `json:"store_id,omitempty"`
	LastTripID     *string `json:"last_trip_id,omitempty"`
}

type checkItemResponse struct {
	Success       bool       `json:"success"`
	TripID        *uuid.UUID `json:"trip_id"`
	TripEnded     bool       `json:"trip_ended"`
	TripCreated   bool       `json:"trip_created"`
	DegradedSteps []string   `json:"degraded_steps,omitempty"`
}

// ShoppingListCheckItem checks an item off the list and attributes it to the
// household's trip at the given store.
func ShoppingListCheckItem(svc shoppinglist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shopping list service unavailable"))
			return
		}

		var body checkItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listID, err := parseUUID("shopping_list_id", body.ShoppingListID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := parseOptionalUUID("store_id", body.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lastTripID, err := parseOptionalUUID("last_trip_id", body.LastTripID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckItem(r.Context(), shoppinglist.CheckItemInput{
			ShoppingListID: listID,
			StoreID:        storeID,
			LastTripID:     lastTripID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkItemResponse{
			Success:       true,
			TripID:        result.TripID,
			TripCreated:   result.TripCreated,
			DegradedSteps: result.DegradedSteps(),
		})
	}
}

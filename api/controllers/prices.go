package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cartledger/cartledger-backend/api/middleware"
	"github.com/cartledger/cartledger-backend/api/responses"
	"github.com/cartledger/cartledger-backend/api/validators"
	"github.com/cartledger/cartledger-backend/internal/prices"
	"github.com/cartledger/cartledger-backend/pkg/calendar"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

const maxItemNameLength = 200

type priceConfirmRequest struct {
	SubmissionID   string           `json:"submission_id" validate:"required"`
	ItemName       string           `json:"item_name" validate:"required"`
	Price          *decimal.Decimal `json:"price" validate:"required"`
	StoreID        string           `json:"store_id" validate:"required"`
	UnitSize       *string          `json:"unit_size,omitempty"`
	IsSale         bool             `json:"is_sale,omitempty"`
	SaleExpiration *string          `json:"sale_expiration,omitempty"`
}

type priceConfirmResponse struct {
	Success bool      `json:"success"`
	PriceID uuid.UUID `json:"price_id"`
	ItemID  uuid.UUID `json:"item_id"`
}

type priceLatestRequest struct {
	ItemName string `json:"item_name" validate:"required"`
	StoreID  string `json:"store_id" validate:"required"`
}

// priceLatestResponse fields are all null when the item has no recorded price
// at the store.
type priceLatestResponse struct {
	Price        *float64 `json:"price"`
	RecordedDate *string  `json:"recorded_date"`
	DaysAgo      *int     `json:"days_ago"`
}

// PriceConfirm records a human-confirmed photo price and marks its submission
// verified.
func PriceConfirm(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		var body priceConfirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		submissionID, err := parseUUID("submission_id", body.SubmissionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := parseUUID("store_id", body.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saleExpiration, err := parseOptionalDate("sale_expiration", body.SaleExpiration)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), prices.ConfirmInput{
			HouseholdCode:  middleware.HouseholdCodeFromContext(r.Context()),
			SubmissionID:   submissionID,
			ItemName:       validators.SanitizeString(body.ItemName, maxItemNameLength),
			Price:          *body.Price,
			StoreID:        storeID,
			UnitSize:       body.UnitSize,
			IsSale:         body.IsSale,
			SaleExpiration: saleExpiration,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, priceConfirmResponse{
			Success: true,
			PriceID: result.Record.ID,
			ItemID:  result.Record.ItemID,
		})
	}
}

// PriceLatest returns the most recent recorded price for an item at a store.
func PriceLatest(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		var body priceLatestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := parseUUID("store_id", body.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		latest, err := svc.Latest(r.Context(), prices.LatestInput{
			HouseholdCode: middleware.HouseholdCodeFromContext(r.Context()),
			ItemName:      validators.SanitizeString(body.ItemName, maxItemNameLength),
			StoreID:       storeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var resp priceLatestResponse
		if latest != nil && latest.Price != nil {
			price := latest.Price.InexactFloat64()
			resp.Price = &price
			resp.DaysAgo = latest.DaysAgo
			if latest.RecordedDate != nil {
				key := calendar.Key(*latest.RecordedDate)
				resp.RecordedDate = &key
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

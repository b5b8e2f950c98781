package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cartledger/cartledger-backend/api/middleware"
	"github.com/cartledger/cartledger-backend/api/responses"
	"github.com/cartledger/cartledger-backend/api/validators"
	"github.com/cartledger/cartledger-backend/internal/receipts"
	"github.com/cartledger/cartledger-backend/pkg/calendar"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

type receiptLineRequest struct {
	Name     string           `json:"name" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Quantity int              `json:"quantity,omitempty" validate:"gte=0"`
	SKU      string           `json:"sku,omitempty"`
}

type receiptImportRequest struct {
	Source string               `json:"source" validate:"required"`
	Store  string               `json:"store,omitempty"`
	Date   string               `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Items  []receiptLineRequest `json:"items" validate:"required,dive"`
}

type receiptLineResponse struct {
	Name     string    `json:"name"`
	ItemID   uuid.UUID `json:"item_id"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Recorded bool      `json:"recorded"`
}

type receiptImportResponse struct {
	Success  bool                  `json:"success"`
	Source   string                `json:"source"`
	StoreID  *uuid.UUID            `json:"store_id"`
	Date     string                `json:"date"`
	Imported int                   `json:"imported"`
	Skipped  int                   `json:"skipped"`
	Items    []receiptLineResponse `json:"items"`
}

func (r receiptImportRequest) toInput(householdCode string) receipts.ImportInput {
	lines := make([]receipts.Line, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, receipts.Line{
			Name:     validators.SanitizeString(item.Name, maxItemNameLength),
			Price:    *item.Price,
			Quantity: item.Quantity,
			SKU:      item.SKU,
		})
	}
	return receipts.ImportInput{
		HouseholdCode: householdCode,
		Source:        validators.SanitizeString(r.Source, 64),
		Store:         validators.SanitizeString(r.Store, maxItemNameLength),
		Date:          r.Date,
		Items:         lines,
	}
}

// ReceiptImport records the prices on a receipt captured by an external tool.
func ReceiptImport(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		var body receiptImportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Import(r.Context(), body.toInput(middleware.HouseholdCodeFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]receiptLineResponse, 0, len(result.Items))
		for _, line := range result.Items {
			items = append(items, receiptLineResponse{
				Name:     line.Name,
				ItemID:   line.ItemID,
				Price:    line.Price.InexactFloat64(),
				Quantity: line.Quantity,
				Recorded: line.Recorded,
			})
		}
		responses.WriteSuccess(w, receiptImportResponse{
			Success:  true,
			Source:   result.Source,
			StoreID:  result.StoreID,
			Date:     calendar.Key(result.Date),
			Imported: result.Imported,
			Skipped:  result.Skipped,
			Items:    items,
		})
	}
}

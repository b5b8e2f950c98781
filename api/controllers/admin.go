package controllers

import (
	"net/http"

	"github.com/cartledger/cartledger-backend/api/responses"
	"github.com/cartledger/cartledger-backend/internal/prices"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

type backfillResponse struct {
	Success bool `json:"success"`
	*prices.BackfillResult
}

// AdminBackfillPriceHistory derives price history from the check-off event log.
func AdminBackfillPriceHistory(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "price service unavailable"))
			return
		}

		result, err := svc.Backfill(r.Context())
		if err != nil {
			if result != nil {
				// batches before the failure stay committed; report them
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price history backfill aborted").
					WithDetails(result)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, backfillResponse{Success: true, BackfillResult: result})
	}
}

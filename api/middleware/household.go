package middleware

import (
	"net/http"

	"github.com/cartledger/cartledger-backend/api/responses"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/household"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

// Household requires the x-household-code header and scopes the request to it.
func Household(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := household.Normalize(r.Header.Get(household.Header))
			if !household.Valid(code) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "x-household-code header required"))
				return
			}
			ctx := WithHouseholdCode(r.Context(), code)
			if logg != nil {
				ctx = logg.WithHouseholdCode(ctx, code)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

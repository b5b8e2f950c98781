package middleware

import "context"

type contextKey string

const ctxHouseholdCode contextKey = "household_code"

// HouseholdCodeFromContext returns the normalized household code attached by
// the Household middleware.
func HouseholdCodeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxHouseholdCode).(string); ok {
		return v
	}
	return ""
}

// WithHouseholdCode injects the household code into the context.
func WithHouseholdCode(ctx context.Context, code string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxHouseholdCode, code)
}

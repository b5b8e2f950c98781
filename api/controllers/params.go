package controllers

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cartledger/cartledger-backend/pkg/calendar"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
)

// parseUUID parses a required identifier from a request body.
func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]string{field: "must be a uuid"})
	}
	return id, nil
}

// parseOptionalUUID treats a missing or blank identifier as absent.
func parseOptionalUUID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseUUID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	date, err := calendar.ParseDate(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]string{field: "must be YYYY-MM-DD"})
	}
	return &date, nil
}

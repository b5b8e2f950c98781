package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
)

type latestBody struct {
	ItemName string    `json:"item_name" validate:"required,max=200"`
	StoreID  uuid.UUID `json:"store_id" validate:"required"`
	Date     string    `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/prices/latest", strings.NewReader(body))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	storeID := uuid.New()
	var body latestBody
	err := DecodeJSONBody(newRequest(`{"item_name":"Milk","store_id":"`+storeID.String()+`","date":"2026-10-16"}`), &body)
	require.NoError(t, err)
	assert.Equal(t, "Milk", body.ItemName)
	assert.Equal(t, storeID, body.StoreID)
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	var body latestBody
	err := DecodeJSONBody(newRequest(`{"item_name":"","date":"16/10/2026"}`), &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["item_name"])
	assert.Equal(t, "is required", details["store_id"])
	assert.Equal(t, "must match 2006-01-02", details["date"])
}

func TestDecodeJSONBodyRejectsUnknownAndEmpty(t *testing.T) {
	var body latestBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(newRequest(`{"item_name":"Milk","user_id":"u1"}`), &body), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(newRequest(``), &body), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(newRequest(`{"store_id":"not-a-uuid"}`), &body), pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Milk", SanitizeString("  Milk ", 10))
	assert.Equal(t, "Whole", SanitizeString("Whole Milk", 5))
}

package receipts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cartledger/cartledger-backend/internal/catalog"
	"github.com/cartledger/cartledger-backend/internal/prices"
	"github.com/cartledger/cartledger-backend/pkg/db/dbtest"
	"github.com/cartledger/cartledger-backend/pkg/db/models"
	"github.com/cartledger/cartledger-backend/pkg/enums"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, maxItems int) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	now := func() time.Time { return testNow }

	cat, err := catalog.NewService(catalog.ServiceParams{Repository: catalog.NewRepository(conn), Logger: logg})
	require.NoError(t, err)
	priceSvc, err := prices.NewService(prices.ServiceParams{
		Repository: prices.NewRepository(conn),
		Catalog:    cat,
		Logger:     logg,
		Now:        now,
	})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Catalog:  cat,
		Prices:   priceSvc,
		Logger:   logg,
		MaxItems: maxItems,
		Now:      now,
	})
	require.NoError(t, err)
	return svc, conn
}

func line(name, price string) Line {
	return Line{Name: name, Price: decimal.RequireFromString(price)}
}

func TestImportRecordsReceiptPrices(t *testing.T) {
	svc, conn := newTestService(t, 0)
	ctx := context.Background()

	result, err := svc.Import(ctx, ImportInput{
		HouseholdCode: "fam01",
		Source:        "instacart",
		Store:         "Acme",
		Date:          "2026-10-14",
		Items:         []Line{line("Milk", "3.49"), line("Bread", "2.99")},
	})
	require.NoError(t, err)
	require.NotNil(t, result.StoreID)
	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Skipped)

	var records []models.PriceHistoryRecord
	require.NoError(t, conn.Order("item_name").Find(&records).Error)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, enums.PriceSourceReceipt, rec.Source)
		assert.Equal(t, "2026-10-14", rec.RecordedDate.Format(time.DateOnly))
		assert.Equal(t, "FAM01", rec.HouseholdCode)
		assert.Equal(t, *result.StoreID, rec.StoreID)
	}

	replay, err := svc.Import(ctx, ImportInput{
		HouseholdCode: "FAM01",
		Source:        "instacart",
		Store:         "acme",
		Date:          "2026-10-14",
		Items:         []Line{line("milk", "3.49"), line("Bread", "3.19")},
	})
	require.NoError(t, err)
	assert.Equal(t, *result.StoreID, *replay.StoreID)
	assert.Equal(t, 1, replay.Imported)
	assert.Equal(t, 1, replay.Skipped)

	var stores int64
	require.NoError(t, conn.Model(&models.Store{}).Count(&stores).Error)
	assert.EqualValues(t, 1, stores)
}

func TestImportWithoutStoreOnlyResolvesItems(t *testing.T) {
	svc, conn := newTestService(t, 0)

	result, err := svc.Import(context.Background(), ImportInput{
		HouseholdCode: "FAM01",
		Source:        "scanner",
		Items:         []Line{line("Milk", "3.49")},
	})
	require.NoError(t, err)
	assert.Nil(t, result.StoreID)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "2026-10-16", result.Date.Format(time.DateOnly))

	var items, records int64
	require.NoError(t, conn.Model(&models.Item{}).Count(&items).Error)
	require.NoError(t, conn.Model(&models.PriceHistoryRecord{}).Count(&records).Error)
	assert.EqualValues(t, 1, items)
	assert.Zero(t, records)
}

func TestImportValidation(t *testing.T) {
	svc, _ := newTestService(t, 2)
	base := ImportInput{HouseholdCode: "FAM01", Source: "scanner", Items: []Line{line("Milk", "1.00")}}

	cases := map[string]func(in *ImportInput){
		"missing household": func(in *ImportInput) { in.HouseholdCode = "" },
		"missing source":    func(in *ImportInput) { in.Source = " " },
		"no items":          func(in *ImportInput) { in.Items = nil },
		"too many items": func(in *ImportInput) {
			in.Items = []Line{line("a", "1"), line("b", "1"), line("c", "1")}
		},
		"blank name":     func(in *ImportInput) { in.Items = []Line{line(" ", "1")} },
		"negative price": func(in *ImportInput) { in.Items = []Line{line("Milk", "-1")} },
		"bad date":       func(in *ImportInput) { in.Date = "10/14/2026" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := svc.Import(context.Background(), in)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

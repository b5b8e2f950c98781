// Package app assembles the domain services shared by the API binary and its
// end-to-end tests.
package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cartledger/cartledger-backend/internal/catalog"
	"github.com/cartledger/cartledger-backend/internal/prices"
	"github.com/cartledger/cartledger-backend/internal/receipts"
	"github.com/cartledger/cartledger-backend/internal/shoppinglist"
	"github.com/cartledger/cartledger-backend/internal/trips"
	"github.com/cartledger/cartledger-backend/pkg/config"
	"github.com/cartledger/cartledger-backend/pkg/db"
	pkgerrors "github.com/cartledger/cartledger-backend/pkg/errors"
	"github.com/cartledger/cartledger-backend/pkg/logger"
	"github.com/cartledger/cartledger-backend/pkg/metrics"
)

type Params struct {
	DB         *db.Client
	Config     *config.Config
	Logger     *logger.Logger
	Registerer prometheus.Registerer
	// Now overrides the clock for every service.
	Now func() time.Time
}

type Services struct {
	Catalog      catalog.Service
	Trips        trips.Service
	Prices       prices.Service
	ShoppingList shoppinglist.Service
	Receipts     receipts.Service
}

// NewServices wires repositories and services over a single database client.
func NewServices(params Params) (*Services, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	if params.Config == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "config required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	cfg := params.Config
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve timezone")
	}
	conn := params.DB.DB()

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Repository: catalog.NewRepository(conn),
		Logger:     params.Logger,
		StoreTTL:   cfg.Cache.StoreNameTTL,
	})
	if err != nil {
		return nil, err
	}

	tripSvc, err := trips.NewService(trips.ServiceParams{
		Repository:  trips.NewRepository(conn),
		Stores:      catalogSvc,
		TxRunner:    params.DB,
		Logger:      params.Logger,
		Location:    loc,
		ReopenGrace: cfg.Trips.ReopenGrace,
		Now:         params.Now,
	})
	if err != nil {
		return nil, err
	}

	priceSvc, err := prices.NewService(prices.ServiceParams{
		Repository: prices.NewRepository(conn),
		Catalog:    catalogSvc,
		Logger:     params.Logger,
		Location:   loc,
		BatchSize:  cfg.Prices.BackfillBatchSize,
		Now:        params.Now,
	})
	if err != nil {
		return nil, err
	}

	listSvc, err := shoppinglist.NewService(shoppinglist.ServiceParams{
		Repository: shoppinglist.NewRepository(conn),
		Stores:     catalogSvc,
		Trips:      tripSvc,
		Prices:     priceSvc,
		Logger:     params.Logger,
		Metrics:    metrics.NewCheckOffMetrics(params.Registerer),
		Now:        params.Now,
	})
	if err != nil {
		return nil, err
	}

	receiptSvc, err := receipts.NewService(receipts.ServiceParams{
		Catalog:  catalogSvc,
		Prices:   priceSvc,
		Logger:   params.Logger,
		Location: loc,
		MaxItems: cfg.Prices.ReceiptMaxItems,
		Now:      params.Now,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Catalog:      catalogSvc,
		Trips:        tripSvc,
		Prices:       priceSvc,
		ShoppingList: listSvc,
		Receipts:     receiptSvc,
	}, nil
}

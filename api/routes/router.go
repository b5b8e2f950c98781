package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cartledger/cartledger-backend/api/controllers"
	"github.com/cartledger/cartledger-backend/api/middleware"
	"github.com/cartledger/cartledger-backend/internal/prices"
	"github.com/cartledger/cartledger-backend/internal/receipts"
	"github.com/cartledger/cartledger-backend/internal/shoppinglist"
	"github.com/cartledger/cartledger-backend/internal/trips"
	"github.com/cartledger/cartledger-backend/pkg/config"
	"github.com/cartledger/cartledger-backend/pkg/db"
	"github.com/cartledger/cartledger-backend/pkg/logger"
	"github.com/cartledger/cartledger-backend/pkg/redis"
)

// Params carries everything the HTTP surface depends on. Redis is optional;
// without it idempotent replays are disabled.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	ShoppingList shoppinglist.Service
	Trips        trips.Service
	Prices       prices.Service
	Receipts     receipts.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	var (
		idempotencyStore redis.IdempotencyStore
		redisPinger      redis.Pinger
	)
	if p.Redis != nil {
		idempotencyStore = p.Redis
		redisPinger = p.Redis
	}
	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/shopping-list/check-item", controllers.ShoppingListCheckItem(p.ShoppingList, logg))

		r.Route("/trips", func(r chi.Router) {
			r.Post("/start", controllers.TripStart(p.Trips, logg))
			r.Post("/end", controllers.TripEnd(p.Trips, logg))
			r.Post("/delete", controllers.TripDelete(p.Trips, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Household(logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))
			r.Post("/prices/confirm", controllers.PriceConfirm(p.Prices, logg))
			r.Post("/prices/latest", controllers.PriceLatest(p.Prices, logg))
			r.Post("/receipts/import-external", controllers.ReceiptImport(p.Receipts, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminToken(cfg.Admin.Token, logg))
			r.Get("/backfill-price-history", controllers.AdminBackfillPriceHistory(p.Prices, logg))
		})
	})

	return r
}

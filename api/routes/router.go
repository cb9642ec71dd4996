package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/gamedepot-backend/api/controllers"
	"github.com/angelmondragon/gamedepot-backend/api/middleware"
	"github.com/angelmondragon/gamedepot-backend/internal/deposits"
	"github.com/angelmondragon/gamedepot-backend/internal/items"
	"github.com/angelmondragon/gamedepot-backend/internal/ledger"
	"github.com/angelmondragon/gamedepot-backend/internal/purchases"
	"github.com/angelmondragon/gamedepot-backend/internal/reports"
	"github.com/angelmondragon/gamedepot-backend/pkg/config"
	"github.com/angelmondragon/gamedepot-backend/pkg/db"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/metrics"
	"github.com/angelmondragon/gamedepot-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on. Redis is
// optional: without it idempotent replay is disabled. Idempotency, when set,
// replaces the Redis-backed replay store.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Deposits  deposits.Service
	Items     items.Service
	Purchases purchases.Service
	Ledger    ledger.Service
	Reports   reports.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	readiness := map[string]controllers.Pinger{"database": p.DB}
	var idempotencyStore redis.IdempotencyStore
	if p.Redis != nil {
		readiness["redis"] = p.Redis
		idempotencyStore = p.Redis
	}
	if p.Idempotency != nil {
		idempotencyStore = p.Idempotency
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(p.Gatherer))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.OperatorRoleAdmin, enums.OperatorRoleManager))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.FeatureFlags.RequireIdempotency, logg))

		r.Post("/deposer", controllers.Deposit(p.Deposits, logg))
		r.Put("/updateStatus", controllers.UpdateStatus(p.Items, logg))
		r.Post("/recuperer", controllers.Retrieve(p.Items, logg))
		r.Post("/acheter", controllers.Purchase(p.Purchases, logg))

		r.Route("/gestion", func(r chi.Router) {
			r.Get("/bilan", controllers.SessionBilan(p.Reports, logg))
			r.Get("/bilan/{vendorId}", controllers.VendorBilan(p.Reports, logg))
			r.Post("/bilan/{vendorId}/payer", controllers.PayVendor(p.Ledger, logg))
			r.Get("/games/{page}", controllers.SalesByLicense(p.Reports, logg))
			r.Get("/vendeurs/{page}", controllers.SalesByVendor(p.Reports, logg))
		})
	})

	return r
}

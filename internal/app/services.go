package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/gamedepot-backend/api/routes"
	"github.com/angelmondragon/gamedepot-backend/internal/catalog"
	"github.com/angelmondragon/gamedepot-backend/internal/deposits"
	"github.com/angelmondragon/gamedepot-backend/internal/items"
	"github.com/angelmondragon/gamedepot-backend/internal/ledger"
	"github.com/angelmondragon/gamedepot-backend/internal/purchases"
	"github.com/angelmondragon/gamedepot-backend/internal/reports"
	"github.com/angelmondragon/gamedepot-backend/pkg/config"
	"github.com/angelmondragon/gamedepot-backend/pkg/db"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/metrics"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox"
	"github.com/angelmondragon/gamedepot-backend/pkg/redis"
)

// Params are the shared resources the settlement services are built on.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Registry *prometheus.Registry
	Now      func() time.Time
}

// Services groups the settlement services exposed over HTTP.
type Services struct {
	Deposits  deposits.Service
	Items     items.Service
	Purchases purchases.Service
	Ledger    ledger.Service
	Reports   reports.Service
}

// NewServices wires repositories, the outbox and metrics into services.
func NewServices(p Params) (*Services, error) {
	if p.Config == nil || p.Logger == nil || p.DB == nil {
		return nil, fmt.Errorf("config, logger and database are required")
	}

	conn := p.DB.DB()
	var reg prometheus.Registerer
	if p.Registry != nil {
		reg = p.Registry
	}
	settlementMetrics := metrics.NewSettlementMetrics(reg)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), p.Logger)

	catalogRepo := catalog.NewRepository(conn)
	itemsRepo := items.NewRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)
	purchasesRepo := purchases.NewRepository(conn)

	depositSvc, err := deposits.NewService(deposits.ServiceParams{
		Deposits: deposits.NewRepository(conn),
		Items:    itemsRepo,
		Catalog:  catalogRepo,
		Tx:       p.DB,
		Outbox:   outboxSvc,
		Logger:   p.Logger,
		Metrics:  settlementMetrics,
		Now:      p.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("deposit service: %w", err)
	}

	itemSvc, err := items.NewService(itemsRepo, p.DB, outboxSvc, p.Logger, items.Options{
		StrictTransitions: p.Config.FeatureFlags.StrictStatusUpdates,
		Now:               p.Now,
		Metrics:           settlementMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("item service: %w", err)
	}

	purchaseSvc, err := purchases.NewService(purchases.ServiceParams{
		Purchases: purchasesRepo,
		Items:     itemsRepo,
		Ledger:    ledgerRepo,
		Catalog:   catalogRepo,
		Tx:        p.DB,
		Outbox:    outboxSvc,
		Logger:    p.Logger,
		Metrics:   settlementMetrics,
		Now:       p.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("purchase service: %w", err)
	}

	ledgerSvc, err := ledger.NewService(ledgerRepo, catalogRepo, p.DB, outboxSvc, p.Logger, settlementMetrics)
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}

	reportSvc, err := reports.NewService(reports.ServiceParams{
		Reports:     reports.NewRepository(conn),
		Ledger:      ledgerRepo,
		Catalog:     catalogRepo,
		Commissions: purchasesRepo,
		Logger:      p.Logger,
		PageSize:    p.Config.Reports.PageSize,
		Now:         p.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("reports service: %w", err)
	}

	return &Services{
		Deposits:  depositSvc,
		Items:     itemSvc,
		Purchases: purchaseSvc,
		Ledger:    ledgerSvc,
		Reports:   reportSvc,
	}, nil
}

// Handler builds the full HTTP surface over the given services.
func Handler(p Params, svcs *Services) (http.Handler, error) {
	if svcs == nil {
		return nil, fmt.Errorf("services are required")
	}
	var gatherer prometheus.Gatherer
	if p.Registry != nil {
		gatherer = p.Registry
	}
	return routes.NewRouter(routes.RouterParams{
		Config:    p.Config,
		Logger:    p.Logger,
		DB:        p.DB,
		Redis:     p.Redis,
		Gatherer:  gatherer,
		Deposits:  svcs.Deposits,
		Items:     svcs.Items,
		Purchases: svcs.Purchases,
		Ledger:    svcs.Ledger,
		Reports:   svcs.Reports,
	}), nil
}

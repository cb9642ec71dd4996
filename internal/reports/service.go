package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamedepot-backend/internal/catalog"
	"github.com/angelmondragon/gamedepot-backend/internal/ledger"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/pagination"
)

const (
	MsgNoSession             = "Aucune session disponible."
	MsgNoSessionData         = "Aucune donnée financière pour cette session."
	MsgVendorNotFound        = "Vendeur introuvable."
	MsgNoVendorSessionData   = "Aucune donnée financière pour ce vendeur dans la session actuelle."
	msgCommissionMismatchLog = "session bilan does not match recorded commissions"
)

type commissionSource interface {
	SumCommission(ctx context.Context, sessionID uint) (decimal.Decimal, error)
}

// Totals are the ledger figures of a bilan. PlatformRevenue is what the
// operator kept: generated minus owed minus already paid out.
type Totals struct {
	Generated       decimal.Decimal
	Owed            decimal.Decimal
	Paid            decimal.Decimal
	PlatformRevenue decimal.Decimal
}

// SessionReport is the bilan of a whole session.
type SessionReport struct {
	Session models.Session
	Totals  Totals
}

// VendorReport is the bilan of one vendor for a session.
type VendorReport struct {
	Vendor  models.Vendor
	Session models.Session
	Totals  Totals
}

// Service aggregates ledger entries and sales into reports.
type Service interface {
	SessionBilan(ctx context.Context) (*SessionReport, error)
	VendorBilan(ctx context.Context, vendorID uint) (*VendorReport, error)
	SalesByLicense(ctx context.Context, page int) ([]LicenseSales, error)
	SalesByVendor(ctx context.Context, page int, vendorID *uint) ([]VendorSales, error)
}

// ServiceParams wires the reports service.
type ServiceParams struct {
	Reports     Repository
	Ledger      ledger.Repository
	Catalog     catalog.Repository
	Commissions commissionSource
	Logger      *logger.Logger
	PageSize    int
	Now         func() time.Time
}

type service struct {
	reports     Repository
	ledger      ledger.Repository
	catalog     catalog.Repository
	commissions commissionSource
	logg        *logger.Logger
	pageSize    int
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Reports == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		reports:     params.Reports,
		ledger:      params.Ledger,
		catalog:     params.Catalog,
		commissions: params.Commissions,
		logg:        params.Logger,
		pageSize:    pagination.NormalizeSize(params.PageSize),
		now:         now,
	}, nil
}

func (s *service) currentSession(ctx context.Context) (*models.Session, error) {
	session, err := s.catalog.CurrentOrLatestSession(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session == nil {
		return nil, pkgerrors.NotFound(MsgNoSession)
	}
	return session, nil
}

// SessionBilan sums every ledger entry of the current (or most recent)
// session.
func (s *service) SessionBilan(ctx context.Context) (*SessionReport, error) {
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor balances")
	}
	if len(entries) == 0 {
		return nil, pkgerrors.NotFound(MsgNoSessionData)
	}

	totals := sumEntries(entries)
	s.verifyCommissions(ctx, session.ID, totals)
	return &SessionReport{Session: *session, Totals: totals}, nil
}

func (s *service) VendorBilan(ctx context.Context, vendorID uint) (*VendorReport, error) {
	vendor, err := s.catalog.FindVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor == nil {
		return nil, pkgerrors.NotFound(MsgVendorNotFound)
	}
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := s.ledger.Get(ctx, vendor.ID, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor balance")
	}
	if entry == nil {
		return nil, pkgerrors.NotFound(MsgNoVendorSessionData)
	}
	return &VendorReport{
		Vendor:  *vendor,
		Session: *session,
		Totals:  sumEntries([]models.VendorBalance{*entry}),
	}, nil
}

func (s *service) SalesByLicense(ctx context.Context, page int) ([]LicenseSales, error) {
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.SalesByLicense(ctx, session.ID, pagination.New(page, s.pageSize))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales by license")
	}
	return rows, nil
}

func (s *service) SalesByVendor(ctx context.Context, page int, vendorID *uint) ([]VendorSales, error) {
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.SalesByVendor(ctx, session.ID, pagination.New(page, s.pageSize), vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales by vendor")
	}
	return rows, nil
}

// verifyCommissions compares the ledger-derived revenue with the commission
// recorded on the purchases. A mismatch is logged, never returned.
func (s *service) verifyCommissions(ctx context.Context, sessionID uint, totals Totals) {
	if s.commissions == nil {
		return
	}
	logCtx := s.logg.WithSession(ctx, sessionID)
	recorded, err := s.commissions.SumCommission(ctx, sessionID)
	if err != nil {
		s.logg.Error(logCtx, "sum session commissions", err)
		return
	}
	if recorded.Equal(totals.PlatformRevenue) {
		return
	}
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"platform_revenue":     totals.PlatformRevenue.StringFixed(2),
		"recorded_commissions": recorded.StringFixed(2),
	})
	s.logg.Warn(logCtx, msgCommissionMismatchLog)
}

func sumEntries(entries []models.VendorBalance) Totals {
	totals := Totals{
		Generated:       decimal.Zero,
		Owed:            decimal.Zero,
		Paid:            decimal.Zero,
		PlatformRevenue: decimal.Zero,
	}
	for _, entry := range entries {
		totals.Generated = totals.Generated.Add(entry.AmountGenerated)
		totals.Owed = totals.Owed.Add(entry.AmountOwed)
		totals.Paid = totals.Paid.Add(entry.AmountPaid)
	}
	totals.PlatformRevenue = totals.Generated.Sub(totals.Owed).Sub(totals.Paid)
	return totals
}

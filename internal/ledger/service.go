package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/internal/catalog"
	"github.com/angelmondragon/gamedepot-backend/pkg/auth"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/metrics"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox/payloads"
)

const (
	MsgVendorNotFound  = "Vendeur introuvable."
	MsgNoSession       = "Aucune session disponible."
	MsgNoVendorBalance = "Aucune donnée financière pour ce vendeur dans la session actuelle."
)

const aggregateIDFormat = "%d:%d"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the payout side of the ledger. Accrual happens during
// purchase settlement through the Repository.
type Service interface {
	MarkPaid(ctx context.Context, actor auth.Principal, vendorID uint) (*PayoutResult, error)
}

// PayoutResult describes a recorded vendor payout.
type PayoutResult struct {
	VendorID   uint
	SessionID  uint
	AmountPaid decimal.Decimal
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.SettlementMetrics
	now     func() time.Time
}

// NewService wires a ledger service with the provided dependencies.
func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger, m *metrics.SettlementMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		catalog: catalogRepo,
		tx:      tx,
		outbox:  outbox,
		logg:    logg,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// MarkPaid settles everything owed to the vendor for the current (or most
// recent) session.
func (s *service) MarkPaid(ctx context.Context, actor auth.Principal, vendorID uint) (result *PayoutResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatch(metrics.OperationPayout, err, time.Since(start)) }()

	vendor, err := s.catalog.FindVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor == nil {
		return nil, pkgerrors.NotFound(MsgVendorNotFound)
	}
	session, err := s.catalog.CurrentOrLatestSession(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session == nil {
		return nil, pkgerrors.NotFound(MsgNoSession)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paid, err := s.repo.WithTx(tx).ResetOwedToZero(ctx, vendor.ID, session.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound(MsgNoVendorBalance)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset owed balance")
		}
		result = &PayoutResult{VendorID: vendor.ID, SessionID: session.ID, AmountPaid: paid}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorPayoutRecorded,
			AggregateType: enums.AggregateVendorBalance,
			AggregateID:   fmt.Sprintf(aggregateIDFormat, vendor.ID, session.ID),
			Actor:         outbox.ActorFromPrincipal(actor),
			Data: payloads.VendorPayoutRecordedEvent{
				VendorID:   vendor.ID,
				SessionID:  session.ID,
				AmountPaid: paid.StringFixed(2),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddAmount(metrics.AmountPaidOut, result.AmountPaid)
	logCtx := s.logg.WithSession(ctx, session.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"vendor_id":   vendor.ID,
		"amount_paid": result.AmountPaid.StringFixed(2),
	})
	s.logg.Info(logCtx, "vendor payout recorded")
	return result, nil
}

package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/internal/catalog"
	"github.com/angelmondragon/gamedepot-backend/internal/items"
	"github.com/angelmondragon/gamedepot-backend/internal/ledger"
	"github.com/angelmondragon/gamedepot-backend/pkg/auth"
	"github.com/angelmondragon/gamedepot-backend/pkg/db"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/metrics"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox/payloads"
)

const (
	MsgInvalidPromo      = "Code promo invalide."
	MsgBuyerNotFound     = "Acheteur non trouvé."
	MsgItemsNotAvailable = "Certains jeux ne sont pas disponibles à l'achat : "
	MsgNoActiveSession   = "Aucune session active trouvée."
	MsgNoPurchase        = "Aucun achat n'a été effectué."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service settles purchase batches.
type Service interface {
	Purchase(ctx context.Context, actor auth.Principal, input PurchaseInput) ([]models.Purchase, error)
}

// PurchaseInput is a validated purchase request. BuyerID is optional.
type PurchaseInput struct {
	ItemIDs   []uint
	PromoCode string
	BuyerID   *uint
}

type service struct {
	purchases Repository
	items     items.Repository
	ledger    ledger.Repository
	catalog   catalog.Repository
	tx        txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.SettlementMetrics
	now       func() time.Time
}

// ServiceParams wires the purchase service.
type ServiceParams struct {
	Purchases Repository
	Items     items.Repository
	Ledger    ledger.Repository
	Catalog   catalog.Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Logger    *logger.Logger
	Metrics   *metrics.SettlementMetrics
	Now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		purchases: params.Purchases,
		items:     params.Items,
		ledger:    params.Ledger,
		catalog:   params.Catalog,
		tx:        params.Tx,
		outbox:    params.Outbox,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

// Purchase sells every requested item or none of them. Items must be listed
// and traceable to a vendor; the ledger of each vendor involved is credited
// in the same transaction.
func (s *service) Purchase(ctx context.Context, actor auth.Principal, input PurchaseInput) (created []models.Purchase, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatch(metrics.OperationPurchase, err, time.Since(start)) }()

	ids := items.UniqueIDs(input.ItemIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.Validation("Au moins un jeu est requis.")
	}

	promoCode := strings.TrimSpace(input.PromoCode)
	reduction := 0
	if promoCode != "" {
		promo, err := s.catalog.FindPromoCode(ctx, promoCode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
		}
		if promo == nil {
			return nil, pkgerrors.Validation(MsgInvalidPromo)
		}
		reduction = promo.Reduction
	}

	if input.BuyerID != nil {
		buyer, err := s.catalog.FindBuyer(ctx, *input.BuyerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
		}
		if buyer == nil {
			return nil, pkgerrors.NotFound(MsgBuyerNotFound)
		}
	}

	var settlement *Settlement
	var session *models.Session
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchaseRepo := s.purchases.WithTx(tx)
		itemRepo := s.items.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		candidates, err := purchaseRepo.ListSaleCandidates(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale candidates")
		}
		if missing := items.MissingIDs(ids, candidateSet(candidates)); len(missing) > 0 {
			return pkgerrors.BatchRejected(MsgItemsNotAvailable, missing)
		}

		now := s.now()
		session, err = catalogRepo.ActiveSession(ctx, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active session")
		}
		if session == nil {
			return pkgerrors.NotFound(MsgNoActiveSession)
		}

		settlement, err = Settle(candidates, TermsFromSession(*session), reduction)
		if err != nil {
			return err
		}
		if len(settlement.Items) == 0 {
			return pkgerrors.Validation(MsgNoPurchase)
		}

		rows := make([]models.Purchase, 0, len(settlement.Items))
		soldIDs := make([]uint, 0, len(settlement.Items))
		for _, item := range settlement.Items {
			rows = append(rows, models.Purchase{
				ItemID:       item.ItemID,
				BuyerID:      input.BuyerID,
				SessionID:    session.ID,
				TransactedAt: now,
				Commission:   item.Commission,
			})
			soldIDs = append(soldIDs, item.ItemID)
		}
		if err := purchaseRepo.CreateBatch(ctx, rows); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "items sold concurrently, retry the batch")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchases")
		}

		updated, err := itemRepo.UpdateStatus(ctx, soldIDs, []enums.ItemStatus{enums.ItemStatusListed}, enums.ItemStatusSold, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark items sold")
		}
		if updated != int64(len(soldIDs)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "items changed concurrently, retry the batch")
		}

		vendors := make([]payloads.VendorSettlement, 0, len(settlement.Vendors))
		for _, total := range settlement.Vendors {
			if err := ledgerRepo.UpsertAdd(ctx, total.VendorID, session.ID, total.AmountOwed, total.AmountGenerated); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit vendor balance")
			}
			vendors = append(vendors, payloads.VendorSettlement{
				VendorID:        total.VendorID,
				AmountOwed:      total.AmountOwed.StringFixed(2),
				AmountGenerated: total.AmountGenerated.StringFixed(2),
			})
		}

		created = rows
		purchaseIDs := make([]uint, 0, len(rows))
		for _, row := range rows {
			purchaseIDs = append(purchaseIDs, row.ID)
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseSettled,
			AggregateType: enums.AggregatePurchaseBatch,
			AggregateID:   items.BatchKey(purchaseIDs),
			Actor:         outbox.ActorFromPrincipal(actor),
			Data: payloads.PurchaseSettledEvent{
				SessionID:       session.ID,
				BuyerID:         input.BuyerID,
				PromoCode:       promoCode,
				PurchaseIDs:     purchaseIDs,
				ItemIDs:         soldIDs,
				TotalCommission: settlement.TotalCommission.StringFixed(2),
				Vendors:         vendors,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	generated := decimal.Zero
	for _, total := range settlement.Vendors {
		generated = generated.Add(total.AmountGenerated)
	}
	s.metrics.AddItems(metrics.OperationPurchase, len(created))
	s.metrics.AddAmount(metrics.AmountGenerated, generated)
	s.metrics.AddAmount(metrics.AmountCommission, settlement.TotalCommission)

	logCtx := s.logg.WithSession(ctx, session.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"item_count":       len(created),
		"vendor_count":     len(settlement.Vendors),
		"total_generated":  generated.StringFixed(2),
		"total_commission": settlement.TotalCommission.StringFixed(2),
	})
	s.logg.Info(logCtx, "purchase settled")
	return created, nil
}

func candidateSet(candidates []SaleCandidate) map[uint]struct{} {
	set := make(map[uint]struct{}, len(candidates))
	for _, c := range candidates {
		set[c.ItemID] = struct{}{}
	}
	return set
}

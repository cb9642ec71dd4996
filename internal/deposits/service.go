package deposits

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/internal/catalog"
	"github.com/angelmondragon/gamedepot-backend/internal/items"
	"github.com/angelmondragon/gamedepot-backend/pkg/auth"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/metrics"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox/payloads"
)

const (
	MsgVendorNotFound   = "Vendeur introuvable."
	MsgInvalidPromo     = "Code promo invalide."
	MsgNoActiveSession  = "Aucune session active trouvée."
	msgLicenseNotFoundF = "Licence avec l'ID %d introuvable."

	// MaxLineQuantity caps the copies a single line may deposit.
	MaxLineQuantity = 500
	// MaxDepositItems caps the items one deposit creates across all lines.
	MaxDepositItems = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records vendor drop-offs.
type Service interface {
	Deposit(ctx context.Context, actor auth.Principal, input DepositInput) (*DepositResult, error)
}

// DepositInput is a validated deposit request.
type DepositInput struct {
	VendorID  uint
	Lines     []Line
	PromoCode string
}

// DepositResult carries the created deposit and its fee rounded to cents.
type DepositResult struct {
	DepositID uint
	SessionID uint
	Fee       string
	ItemIDs   []uint
}

type service struct {
	deposits Repository
	items    items.Repository
	catalog  catalog.Repository
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
	metrics  *metrics.SettlementMetrics
	now      func() time.Time
}

// ServiceParams wires the deposit service.
type ServiceParams struct {
	Deposits Repository
	Items    items.Repository
	Catalog  catalog.Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Logger   *logger.Logger
	Metrics  *metrics.SettlementMetrics
	Now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Deposits == nil {
		return nil, fmt.Errorf("deposit repository required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("items repository required")
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
		deposits: params.Deposits,
		items:    params.Items,
		catalog:  params.Catalog,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// Deposit computes the fee, then creates the deposit and its items in one
// transaction. Every license is resolved before anything is written; the
// first unknown one, in line order, aborts the deposit.
func (s *service) Deposit(ctx context.Context, actor auth.Principal, input DepositInput) (result *DepositResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatch(metrics.OperationDeposit, err, time.Since(start)) }()

	if err := validateInput(input); err != nil {
		return nil, err
	}

	vendor, err := s.catalog.FindVendor(ctx, input.VendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor == nil {
		return nil, pkgerrors.NotFound(MsgVendorNotFound)
	}

	reduction := 0
	if input.PromoCode != "" {
		promo, err := s.catalog.FindPromoCode(ctx, input.PromoCode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
		}
		if promo == nil {
			return nil, pkgerrors.NotFound(MsgInvalidPromo)
		}
		reduction = promo.Reduction
	}

	now := s.now()
	session, err := s.catalog.ActiveSession(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active session")
	}
	if session == nil {
		return nil, pkgerrors.NotFound(MsgNoActiveSession)
	}

	fee := ComputeFee(input.Lines, RatesFromSession(*session), reduction).Round(2)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		depositRepo := s.deposits.WithTx(tx)
		itemRepo := s.items.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		licenses, err := catalogRepo.FindLicenses(ctx, lineLicenseIDs(input.Lines))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load licenses")
		}
		for _, line := range input.Lines {
			if _, ok := licenses[line.LicenseID]; !ok {
				return pkgerrors.NotFound(fmt.Sprintf(msgLicenseNotFoundF, line.LicenseID))
			}
		}

		deposit := &models.Deposit{
			VendorID:    vendor.ID,
			SessionID:   session.ID,
			Fee:         fee,
			DepositedAt: now,
		}
		if err := depositRepo.Create(ctx, deposit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deposit")
		}

		created := []uint{}
		for _, line := range input.Lines {
			batch := buildItems(deposit.ID, line)
			if err := itemRepo.CreateBatch(ctx, batch); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create items")
			}
			for _, item := range batch {
				created = append(created, item.ID)
			}
		}

		result = &DepositResult{
			DepositID: deposit.ID,
			SessionID: session.ID,
			Fee:       fee.StringFixed(2),
			ItemIDs:   created,
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDepositCreated,
			AggregateType: enums.AggregateDeposit,
			AggregateID:   strconv.FormatUint(uint64(deposit.ID), 10),
			Actor:         outbox.ActorFromPrincipal(actor),
			Data: payloads.DepositCreatedEvent{
				DepositID: deposit.ID,
				VendorID:  vendor.ID,
				SessionID: session.ID,
				Fee:       result.Fee,
				PromoCode: input.PromoCode,
				ItemIDs:   created,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddItems(metrics.OperationDeposit, len(result.ItemIDs))
	s.metrics.AddAmount(metrics.AmountDepositFee, fee)
	logCtx := s.logg.WithSession(ctx, session.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"vendor_id":  vendor.ID,
		"deposit_id": result.DepositID,
		"item_count": len(result.ItemIDs),
		"fee":        result.Fee,
	})
	s.logg.Info(logCtx, "deposit recorded")
	return result, nil
}

func validateInput(input DepositInput) error {
	if input.VendorID == 0 {
		return pkgerrors.Validation("id_vendeur est requis.")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.Validation("Au moins une licence est requise.")
	}
	total := 0
	for i, line := range input.Lines {
		if line.Quantity <= 0 {
			return pkgerrors.Validation("La quantité doit être positive.").
				WithDetails(map[string]any{"index": i})
		}
		if line.Quantity > MaxLineQuantity {
			return pkgerrors.Validation(fmt.Sprintf("La quantité ne peut pas dépasser %d.", MaxLineQuantity)).
				WithDetails(map[string]any{"index": i, "max": MaxLineQuantity})
		}
		total += line.Quantity
		if line.Price.IsNegative() {
			return pkgerrors.Validation("Le prix doit être positif ou nul.").
				WithDetails(map[string]any{"index": i})
		}
		if total > MaxDepositItems {
			return pkgerrors.Validation(fmt.Sprintf("Un dépôt ne peut pas dépasser %d jeux.", MaxDepositItems)).
				WithDetails(map[string]any{"max": MaxDepositItems})
		}
	}
	return nil
}

func lineLicenseIDs(lines []Line) []uint {
	seen := make(map[uint]struct{}, len(lines))
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.LicenseID]; ok {
			continue
		}
		seen[line.LicenseID] = struct{}{}
		ids = append(ids, line.LicenseID)
	}
	return ids
}

func buildItems(depositID uint, line Line) []models.Item {
	batch := make([]models.Item, line.Quantity)
	for i := range batch {
		batch[i] = models.Item{
			LicenseID: line.LicenseID,
			Price:     line.Price.Round(2),
			Status:    enums.ItemStatusDepositable,
			DepositID: depositID,
		}
	}
	return batch
}

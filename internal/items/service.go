package items

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

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
	MsgItemsNotFound       = "Certains jeux ne peuvent pas être trouvés ou n'existent pas : "
	MsgItemsNotRetrievable = "Certains jeux ne peuvent pas être récupérés : "
	MsgItemsNotMovable     = "Certains jeux ne peuvent pas changer de statut : "
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service executes batch status changes. Every batch is all-or-nothing.
type Service interface {
	UpdateStatus(ctx context.Context, actor auth.Principal, ids []uint, target enums.ItemStatus) ([]uint, error)
	Retrieve(ctx context.Context, actor auth.Principal, ids []uint) ([]models.Item, error)
}

// Options tunes the lifecycle service.
type Options struct {
	// StrictTransitions makes UpdateStatus honour the transition graph instead
	// of acting as an unrestricted operator override.
	StrictTransitions bool
	Now               func() time.Time
	Metrics           *metrics.SettlementMetrics
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	strict  bool
	now     func() time.Time
	metrics *metrics.SettlementMetrics
}

// NewService builds the item lifecycle service.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
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
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outbox,
		logg:    logg,
		strict:  opts.StrictTransitions,
		now:     now,
		metrics: opts.Metrics,
	}, nil
}

// UpdateStatus sets every item to target. Unless strict, no transition rule is
// applied: this is the operator correction path.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Principal, ids []uint, target enums.ItemStatus) (updated []uint, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatch(metrics.OperationStatusUpdate, err, time.Since(start)) }()

	if !target.IsValid() {
		return nil, pkgerrors.Validation(fmt.Sprintf("Statut invalide : %s", target))
	}
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, pkgerrors.Validation("Aucun jeu fourni.")
	}

	var reopened []uint
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reopened = reopened[:0]

		found, err := repo.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
		}
		if missing := MissingIDs(ids, idSet(found)); len(missing) > 0 {
			return pkgerrors.BatchRejected(MsgItemsNotFound, missing)
		}

		for _, item := range found {
			if item.Status.IsTerminal() && item.Status != target {
				reopened = append(reopened, item.ID)
			}
		}

		var from []enums.ItemStatus
		if s.strict {
			blocked := []uint{}
			for _, item := range found {
				if !item.Status.CanTransitionTo(target) {
					blocked = append(blocked, item.ID)
				}
			}
			if len(blocked) > 0 {
				return pkgerrors.BatchRejected(MsgItemsNotMovable, blocked)
			}
			from = enums.StatusesLeadingTo(target)
		}

		rows, err := repo.UpdateStatus(ctx, ids, from, target, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item status")
		}
		if rows != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "items changed concurrently, retry the batch")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemsStatusChanged,
			AggregateType: enums.AggregateItemBatch,
			AggregateID:   BatchKey(ids),
			Actor:         outbox.ActorFromPrincipal(actor),
			Data:          payloads.ItemsStatusChangedEvent{ItemIDs: ids, Status: target},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddItems(metrics.OperationStatusUpdate, len(ids))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"item_count": len(ids),
		"status":     target.String(),
		"strict":     s.strict,
	})
	s.logg.Info(logCtx, "item status updated")
	if len(reopened) > 0 {
		// sold items keep their purchase rows and ledger credit
		s.logg.Warn(s.logg.WithField(logCtx, "reopened_ids", reopened), "terminal items moved by operator override")
	}
	return ids, nil
}

// Retrieve hands unsold items back to their vendor.
func (s *service) Retrieve(ctx context.Context, actor auth.Principal, ids []uint) (retrieved []models.Item, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatch(metrics.OperationRetrieve, err, time.Since(start)) }()

	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, pkgerrors.Validation("Aucun jeu fourni.")
	}
	eligible := enums.StatusesLeadingTo(enums.ItemStatusRetrieved)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByIDs(ctx, ids, eligible...)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load items")
		}
		if missing := MissingIDs(ids, idSet(found)); len(missing) > 0 {
			return pkgerrors.BatchRejected(MsgItemsNotRetrievable, missing)
		}

		at := s.now()
		rows, err := repo.UpdateStatus(ctx, ids, eligible, enums.ItemStatusRetrieved, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve items")
		}
		if rows != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "items changed concurrently, retry the batch")
		}

		for i := range found {
			found[i].Status = enums.ItemStatusRetrieved
			found[i].UpdatedAt = at
		}
		retrieved = found

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemsRetrieved,
			AggregateType: enums.AggregateItemBatch,
			AggregateID:   BatchKey(ids),
			Actor:         outbox.ActorFromPrincipal(actor),
			Data:          payloads.ItemsRetrievedEvent{ItemIDs: ids},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddItems(metrics.OperationRetrieve, len(retrieved))
	s.logg.Info(s.logg.WithField(ctx, "item_count", len(retrieved)), "items retrieved")
	return retrieved, nil
}


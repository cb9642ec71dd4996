package purchases

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
)

// Repository persists purchases and resolves what can be sold.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListSaleCandidates(ctx context.Context, ids []uint) ([]SaleCandidate, error)
	CreateBatch(ctx context.Context, rows []models.Purchase) error
	SumCommission(ctx context.Context, sessionID uint) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchase repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

type candidateRow struct {
	ItemID    uint
	Price     decimal.Decimal
	DepositID *uint
	VendorID  *uint
}

// ListSaleCandidates returns the listed items among ids with their deposit and
// vendor resolved by left joins, so a broken chain surfaces as a nil vendor
// rather than a missing row.
func (r *repository) ListSaleCandidates(ctx context.Context, ids []uint) ([]SaleCandidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []candidateRow
	err := r.db.WithContext(ctx).
		Table("items").
		Select("items.id AS item_id, items.price AS price, deposits.id AS deposit_id, vendors.id AS vendor_id").
		Joins("LEFT JOIN deposits ON deposits.id = items.deposit_id").
		Joins("LEFT JOIN vendors ON vendors.id = deposits.vendor_id").
		Where("items.id IN ?", ids).
		Where("items.status = ?", enums.ItemStatusListed).
		Order("items.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]SaleCandidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, SaleCandidate(row))
	}
	return out, nil
}

func (r *repository) CreateBatch(ctx context.Context, rows []models.Purchase) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// SumCommission totals the commission recorded on purchases of a session.
func (r *repository) SumCommission(ctx context.Context, sessionID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Select("SUM(commission)").
		Where("session_id = ?", sessionID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

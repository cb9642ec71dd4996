package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
)

// Repository manages the per (vendor, session) running balances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, vendorID, sessionID uint) (*models.VendorBalance, error)
	UpsertAdd(ctx context.Context, vendorID, sessionID uint, deltaOwed, deltaGenerated decimal.Decimal) error
	ResetOwedToZero(ctx context.Context, vendorID, sessionID uint) (decimal.Decimal, error)
	ListBySession(ctx context.Context, sessionID uint) ([]models.VendorBalance, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Get returns nil when the vendor has no entry for the session.
func (r *repository) Get(ctx context.Context, vendorID, sessionID uint) (*models.VendorBalance, error) {
	var entry models.VendorBalance
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND session_id = ?", vendorID, sessionID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// UpsertAdd creates the entry or increments it in a single statement, so
// concurrent batches for the same key never lose an update.
func (r *repository) UpsertAdd(ctx context.Context, vendorID, sessionID uint, deltaOwed, deltaGenerated decimal.Decimal) error {
	now := time.Now().UTC()
	entry := models.VendorBalance{
		VendorID:        vendorID,
		SessionID:       sessionID,
		AmountOwed:      deltaOwed,
		AmountGenerated: deltaGenerated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}, {Name: "session_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount_owed":      gorm.Expr("vendor_balances.amount_owed + excluded.amount_owed"),
				"amount_generated": gorm.Expr("vendor_balances.amount_generated + excluded.amount_generated"),
				"updated_at":       gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(&entry).Error
}

// ResetOwedToZero moves amount_owed into amount_paid and returns the amount
// moved. It returns gorm.ErrRecordNotFound when no entry exists.
func (r *repository) ResetOwedToZero(ctx context.Context, vendorID, sessionID uint) (decimal.Decimal, error) {
	var entry models.VendorBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vendor_id = ? AND session_id = ?", vendorID, sessionID).
		First(&entry).Error
	if err != nil {
		return decimal.Zero, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.VendorBalance{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"amount_paid": gorm.Expr("amount_paid + amount_owed"),
			"amount_owed": decimal.Zero,
			"updated_at":  time.Now().UTC(),
		}).Error
	if err != nil {
		return decimal.Zero, err
	}
	return entry.AmountOwed, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID uint) ([]models.VendorBalance, error) {
	var entries []models.VendorBalance
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("vendor_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Package catalog resolves the reference records the settlement flows depend
// on: vendors, buyers, licenses, promo codes and sessions. It never writes.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
)

// Repository is the read-only lookup surface. Absent records yield (nil, nil).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVendor(ctx context.Context, id uint) (*models.Vendor, error)
	FindBuyer(ctx context.Context, id uint) (*models.Buyer, error)
	FindLicenses(ctx context.Context, ids []uint) (map[uint]models.License, error)
	FindPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	ActiveSession(ctx context.Context, now time.Time) (*models.Session, error)
	CurrentOrLatestSession(ctx context.Context, now time.Time) (*models.Session, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVendor(ctx context.Context, id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	return firstOrNil(r.db.WithContext(ctx).Where("id = ?", id).First(&vendor), &vendor)
}

func (r *repository) FindBuyer(ctx context.Context, id uint) (*models.Buyer, error) {
	var buyer models.Buyer
	return firstOrNil(r.db.WithContext(ctx).Where("id = ?", id).First(&buyer), &buyer)
}

// FindLicenses returns the licenses among ids keyed by id. Missing ids are
// simply absent from the map.
func (r *repository) FindLicenses(ctx context.Context, ids []uint) (map[uint]models.License, error) {
	out := make(map[uint]models.License, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.License
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *repository) FindPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var promo models.PromoCode
	return firstOrNil(r.db.WithContext(ctx).Where("code = ?", code).First(&promo), &promo)
}

// ActiveSession returns the session whose window contains now. When windows
// overlap the most recently started one wins.
func (r *repository) ActiveSession(ctx context.Context, now time.Time) (*models.Session, error) {
	var session models.Session
	q := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Order("start_date DESC").
		Order("id DESC").
		First(&session)
	return firstOrNil(q, &session)
}

// CurrentOrLatestSession falls back to the most recently ended session.
func (r *repository) CurrentOrLatestSession(ctx context.Context, now time.Time) (*models.Session, error) {
	active, err := r.ActiveSession(ctx, now)
	if err != nil || active != nil {
		return active, err
	}
	var session models.Session
	q := r.db.WithContext(ctx).
		Where("end_date < ?", now).
		Order("end_date DESC").
		Order("id DESC").
		First(&session)
	return firstOrNil(q, &session)
}

func firstOrNil[T any](result *gorm.DB, out *T) (*T, error) {
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

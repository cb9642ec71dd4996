package items

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
)

// Repository persists consigned items and their status column.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, items []models.Item) error
	FindByIDs(ctx context.Context, ids []uint, statuses ...enums.ItemStatus) ([]models.Item, error)
	UpdateStatus(ctx context.Context, ids []uint, from []enums.ItemStatus, to enums.ItemStatus, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindByIDs loads the items among ids, optionally restricted to statuses.
func (r *repository) FindByIDs(ctx context.Context, ids []uint, statuses ...enums.ItemStatus) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Where("id IN ?", ids)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var rows []models.Item
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus moves ids to the target status. When from is non-empty only
// rows currently in one of those statuses change; the caller compares the
// returned row count with len(ids).
func (r *repository) UpdateStatus(ctx context.Context, ids []uint, from []enums.ItemStatus, to enums.ItemStatus, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Item{}).Where("id IN ?", ids)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}
	result := q.Updates(map[string]any{
		"status":     to,
		"updated_at": at,
	})
	return result.RowsAffected, result.Error
}

package reports

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	"github.com/angelmondragon/gamedepot-backend/pkg/pagination"
)

// LicenseSales counts the items of one license sold during a session.
type LicenseSales struct {
	PublisherName string `json:"editeur_nom"`
	LicenseName   string `json:"licence_nom"`
	Quantity      int64  `json:"quantite_vendue"`
}

// VendorSales is LicenseSales broken down per vendor.
type VendorSales struct {
	PublisherName string `json:"editeur_nom"`
	LicenseName   string `json:"licence_nom"`
	VendorName    string `json:"vendeur_nom"`
	Quantity      int64  `json:"quantite_vendue"`
}

// Repository runs the sales volume queries. A sale belongs to the session
// recorded on its purchase row.
type Repository interface {
	SalesByLicense(ctx context.Context, sessionID uint, page pagination.Page) ([]LicenseSales, error)
	SalesByVendor(ctx context.Context, sessionID uint, page pagination.Page, vendorID *uint) ([]VendorSales, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) soldInSession(ctx context.Context, sessionID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("purchases").
		Joins("JOIN items ON items.id = purchases.item_id").
		Joins("JOIN licenses ON licenses.id = items.license_id").
		Joins("JOIN publishers ON publishers.id = licenses.publisher_id").
		Where("purchases.session_id = ?", sessionID).
		Where("items.status = ?", enums.ItemStatusSold)
}

func (r *repository) SalesByLicense(ctx context.Context, sessionID uint, page pagination.Page) ([]LicenseSales, error) {
	rows := []LicenseSales{}
	err := r.soldInSession(ctx, sessionID).
		Select("publishers.name AS publisher_name, licenses.name AS license_name, COUNT(purchases.id) AS quantity").
		Group("publishers.id, publishers.name, licenses.id, licenses.name").
		Order("publishers.name ASC, licenses.name ASC, licenses.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SalesByVendor(ctx context.Context, sessionID uint, page pagination.Page, vendorID *uint) ([]VendorSales, error) {
	q := r.soldInSession(ctx, sessionID).
		Joins("JOIN deposits ON deposits.id = items.deposit_id").
		Joins("JOIN vendors ON vendors.id = deposits.vendor_id")
	if vendorID != nil {
		q = q.Where("vendors.id = ?", *vendorID)
	}
	rows := []VendorSales{}
	err := q.
		Select("publishers.name AS publisher_name, licenses.name AS license_name, vendors.name AS vendor_name, COUNT(purchases.id) AS quantity").
		Group("vendors.id, vendors.name, publishers.id, publishers.name, licenses.id, licenses.name").
		Order("vendors.name ASC, publishers.name ASC, licenses.name ASC, vendors.id ASC, licenses.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

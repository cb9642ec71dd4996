package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
)

func mustCreate[T any](t *testing.T, db *gorm.DB, row *T) *T {
	t.Helper()
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create %T: %v", row, err)
	}
	return row
}

// MustCreateVendor inserts a vendor with the given name.
func MustCreateVendor(t *testing.T, db *gorm.DB, name string) *models.Vendor {
	t.Helper()
	return mustCreate(t, db, &models.Vendor{Name: name, Email: fmt.Sprintf("%s@example.com", name)})
}

func MustCreateBuyer(t *testing.T, db *gorm.DB, name string) *models.Buyer {
	t.Helper()
	return mustCreate(t, db, &models.Buyer{Name: name})
}

// MustCreateLicense inserts a license and its publisher.
func MustCreateLicense(t *testing.T, db *gorm.DB, publisherName, licenseName string) *models.License {
	t.Helper()
	var publisher models.Publisher
	if err := db.Where(models.Publisher{Name: publisherName}).FirstOrCreate(&publisher).Error; err != nil {
		t.Fatalf("create publisher: %v", err)
	}
	return mustCreate(t, db, &models.License{Name: licenseName, PublisherID: publisher.ID})
}

func MustCreatePromo(t *testing.T, db *gorm.DB, code string, reduction int) *models.PromoCode {
	t.Helper()
	return mustCreate(t, db, &models.PromoCode{Code: code, Reduction: reduction})
}

// SessionRates configures a session's commission and deposit fee.
type SessionRates struct {
	Commission          string
	CommissionIsPercent bool
	DepositFee          string
	DepositFeeIsPercent bool
}

// MustCreateSession inserts a session spanning [start, end].
func MustCreateSession(t *testing.T, db *gorm.DB, start, end time.Time, rates SessionRates) *models.Session {
	t.Helper()
	return mustCreate(t, db, &models.Session{
		StartDate:           start.UTC(),
		EndDate:             end.UTC(),
		CommissionRate:      decimalOrZero(rates.Commission),
		CommissionIsPercent: rates.CommissionIsPercent,
		DepositFeeRate:      decimalOrZero(rates.DepositFee),
		DepositFeeIsPercent: rates.DepositFeeIsPercent,
	})
}

// MustCreateDeposit inserts a deposit with no fee.
func MustCreateDeposit(t *testing.T, db *gorm.DB, vendorID, sessionID uint) *models.Deposit {
	t.Helper()
	return mustCreate(t, db, &models.Deposit{
		VendorID:    vendorID,
		SessionID:   sessionID,
		Fee:         decimal.Zero,
		DepositedAt: time.Now().UTC(),
	})
}

// MustCreateItems inserts count items at price in status, attached to depositID.
func MustCreateItems(t *testing.T, db *gorm.DB, depositID, licenseID uint, price string, status enums.ItemStatus, count int) []models.Item {
	t.Helper()
	rows := make([]models.Item, count)
	for i := range rows {
		rows[i] = models.Item{
			LicenseID: licenseID,
			Price:     decimal.RequireFromString(price),
			Status:    status,
			DepositID: depositID,
		}
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("create items: %v", err)
	}
	return rows
}

// ItemIDs extracts ids from rows.
func ItemIDs(rows []models.Item) []uint {
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}

// ItemStatuses reads back the status of each id.
func ItemStatuses(t *testing.T, db *gorm.DB, ids []uint) map[uint]enums.ItemStatus {
	t.Helper()
	var rows []models.Item
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	out := make(map[uint]enums.ItemStatus, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Status
	}
	return out
}

// CountRows counts the rows of model's table.
func CountRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return count
}

func decimalOrZero(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(value)
}

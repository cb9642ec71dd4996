package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/internal/catalog"
	"github.com/angelmondragon/gamedepot-backend/internal/ledger"
	"github.com/angelmondragon/gamedepot-backend/internal/purchases"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, pageSize int) (Service, *gorm.DB, *bytes.Buffer) {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "reports-test", Output: &buf})

	svc, err := NewService(ServiceParams{
		Reports:     NewRepository(conn),
		Ledger:      ledger.NewRepository(conn),
		Catalog:     catalog.NewRepository(conn),
		Commissions: purchases.NewRepository(conn),
		Logger:      logg,
		PageSize:    pageSize,
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, conn, &buf
}

func openSession(t *testing.T, conn *gorm.DB) *models.Session {
	t.Helper()
	return dbtest.MustCreateSession(t, conn, fixedNow.AddDate(0, 0, -1), fixedNow.AddDate(0, 0, 1), dbtest.SessionRates{})
}

// recordSale marks rows sold and writes their purchase rows plus the ledger credit.
func recordSale(t *testing.T, conn *gorm.DB, session *models.Session, vendorID uint, rows []models.Item, commission string) {
	t.Helper()
	ctx := context.Background()
	fee := decimal.RequireFromString(commission)
	generated, owed := decimal.Zero, decimal.Zero
	for _, row := range rows {
		require.NoError(t, conn.Model(&models.Item{}).Where("id = ?", row.ID).Update("status", enums.ItemStatusSold).Error)
		require.NoError(t, conn.Create(&models.Purchase{
			ItemID:       row.ID,
			SessionID:    session.ID,
			TransactedAt: fixedNow,
			Commission:   fee,
		}).Error)
		generated = generated.Add(row.Price)
		owed = owed.Add(row.Price.Sub(fee))
	}
	require.NoError(t, ledger.NewRepository(conn).UpsertAdd(ctx, vendorID, session.ID, owed, generated))
}

func TestSessionBilanRequiresSessionAndData(t *testing.T) {
	svc, conn, _ := newTestService(t, 0)

	_, err := svc.SessionBilan(context.Background())
	assertNotFound(t, err, MsgNoSession)

	openSession(t, conn)
	_, err = svc.SessionBilan(context.Background())
	assertNotFound(t, err, MsgNoSessionData)
}

func TestSessionBilanSumsEntries(t *testing.T) {
	svc, conn, buf := newTestService(t, 0)
	session := openSession(t, conn)
	license := dbtest.MustCreateLicense(t, conn, "Kosmos", "Catan")
	alice := dbtest.MustCreateVendor(t, conn, "alice")
	bob := dbtest.MustCreateVendor(t, conn, "bob")
	aliceItems := dbtest.MustCreateItems(t, conn, dbtest.MustCreateDeposit(t, conn, alice.ID, session.ID).ID, license.ID, "50", enums.ItemStatusListed, 2)
	bobItems := dbtest.MustCreateItems(t, conn, dbtest.MustCreateDeposit(t, conn, bob.ID, session.ID).ID, license.ID, "30", enums.ItemStatusListed, 1)
	recordSale(t, conn, session, alice.ID, aliceItems, "5")
	recordSale(t, conn, session, bob.ID, bobItems, "3")

	report, err := svc.SessionBilan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.ID, report.Session.ID)
	assert.Equal(t, "130.00", report.Totals.Generated.StringFixed(2))
	assert.Equal(t, "117.00", report.Totals.Owed.StringFixed(2))
	assert.Equal(t, "13.00", report.Totals.PlatformRevenue.StringFixed(2))
	assert.NotContains(t, buf.String(), msgCommissionMismatchLog)

	_, err = ledger.NewRepository(conn).ResetOwedToZero(context.Background(), alice.ID, session.ID)
	require.NoError(t, err)
	report, err = svc.SessionBilan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "90.00", report.Totals.Paid.StringFixed(2))
	assert.Equal(t, "13.00", report.Totals.PlatformRevenue.StringFixed(2))
	assert.NotContains(t, buf.String(), msgCommissionMismatchLog)
}

func TestSessionBilanWarnsOnCommissionMismatch(t *testing.T) {
	svc, conn, buf := newTestService(t, 0)
	session := openSession(t, conn)
	vendor := dbtest.MustCreateVendor(t, conn, "alice")
	require.NoError(t, ledger.NewRepository(conn).UpsertAdd(context.Background(), vendor.ID, session.ID,
		decimal.RequireFromString("80"), decimal.RequireFromString("100")))

	report, err := svc.SessionBilan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20.00", report.Totals.PlatformRevenue.StringFixed(2))
	assert.Contains(t, buf.String(), msgCommissionMismatchLog)
}

func TestVendorBilan(t *testing.T) {
	svc, conn, _ := newTestService(t, 0)

	_, err := svc.VendorBilan(context.Background(), 5)
	assertNotFound(t, err, MsgVendorNotFound)

	vendor := dbtest.MustCreateVendor(t, conn, "alice")
	_, err = svc.VendorBilan(context.Background(), vendor.ID)
	assertNotFound(t, err, MsgNoSession)

	session := openSession(t, conn)
	_, err = svc.VendorBilan(context.Background(), vendor.ID)
	assertNotFound(t, err, MsgNoVendorSessionData)

	require.NoError(t, ledger.NewRepository(conn).UpsertAdd(context.Background(), vendor.ID, session.ID,
		decimal.RequireFromString("414"), decimal.RequireFromString("460")))
	report, err := svc.VendorBilan(context.Background(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, report.Vendor.ID)
	assert.Equal(t, "46.00", report.Totals.PlatformRevenue.StringFixed(2))
}

func TestBilanFallsBackToLatestEndedSession(t *testing.T) {
	svc, conn, _ := newTestService(t, 0)
	older := dbtest.MustCreateSession(t, conn, fixedNow.AddDate(0, -2, 0), fixedNow.AddDate(0, -2, 5), dbtest.SessionRates{})
	latest := dbtest.MustCreateSession(t, conn, fixedNow.AddDate(0, -1, 0), fixedNow.AddDate(0, -1, 5), dbtest.SessionRates{})
	vendor := dbtest.MustCreateVendor(t, conn, "alice")
	repo := ledger.NewRepository(conn)
	require.NoError(t, repo.UpsertAdd(context.Background(), vendor.ID, older.ID, decimal.NewFromInt(1), decimal.NewFromInt(2)))
	require.NoError(t, repo.UpsertAdd(context.Background(), vendor.ID, latest.ID, decimal.NewFromInt(9), decimal.NewFromInt(10)))

	report, err := svc.SessionBilan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, latest.ID, report.Session.ID)
	assert.Equal(t, "10.00", report.Totals.Generated.StringFixed(2))
}

func TestSalesReports(t *testing.T) {
	svc, conn, _ := newTestService(t, 2)
	session := openSession(t, conn)
	previous := dbtest.MustCreateSession(t, conn, fixedNow.AddDate(0, -1, 0), fixedNow.AddDate(0, -1, 5), dbtest.SessionRates{})
	catan := dbtest.MustCreateLicense(t, conn, "Kosmos", "Catan")
	azul := dbtest.MustCreateLicense(t, conn, "Plan B", "Azul")
	dixit := dbtest.MustCreateLicense(t, conn, "Asmodee", "Dixit")
	alice := dbtest.MustCreateVendor(t, conn, "alice")
	bob := dbtest.MustCreateVendor(t, conn, "bob")
	aliceDeposit := dbtest.MustCreateDeposit(t, conn, alice.ID, session.ID)
	bobDeposit := dbtest.MustCreateDeposit(t, conn, bob.ID, session.ID)

	recordSale(t, conn, session, alice.ID, dbtest.MustCreateItems(t, conn, aliceDeposit.ID, catan.ID, "10", enums.ItemStatusListed, 3), "1")
	recordSale(t, conn, session, bob.ID, dbtest.MustCreateItems(t, conn, bobDeposit.ID, catan.ID, "10", enums.ItemStatusListed, 1), "1")
	recordSale(t, conn, session, bob.ID, dbtest.MustCreateItems(t, conn, bobDeposit.ID, azul.ID, "10", enums.ItemStatusListed, 2), "1")
	recordSale(t, conn, session, alice.ID, dbtest.MustCreateItems(t, conn, aliceDeposit.ID, dixit.ID, "10", enums.ItemStatusListed, 1), "1")
	recordSale(t, conn, previous, alice.ID, dbtest.MustCreateItems(t, conn, aliceDeposit.ID, dixit.ID, "10", enums.ItemStatusListed, 4), "1")
	dbtest.MustCreateItems(t, conn, aliceDeposit.ID, azul.ID, "10", enums.ItemStatusListed, 5)

	first, err := svc.SalesByLicense(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []LicenseSales{
		{PublisherName: "Asmodee", LicenseName: "Dixit", Quantity: 1},
		{PublisherName: "Kosmos", LicenseName: "Catan", Quantity: 4},
	}, first)
	second, err := svc.SalesByLicense(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []LicenseSales{{PublisherName: "Plan B", LicenseName: "Azul", Quantity: 2}}, second)
	third, err := svc.SalesByLicense(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, third)

	byVendor, err := svc.SalesByVendor(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []VendorSales{
		{PublisherName: "Asmodee", LicenseName: "Dixit", VendorName: "alice", Quantity: 1},
		{PublisherName: "Kosmos", LicenseName: "Catan", VendorName: "alice", Quantity: 3},
	}, byVendor)

	onlyBob, err := svc.SalesByVendor(context.Background(), 1, &bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []VendorSales{
		{PublisherName: "Kosmos", LicenseName: "Catan", VendorName: "bob", Quantity: 1},
		{PublisherName: "Plan B", LicenseName: "Azul", VendorName: "bob", Quantity: 2},
	}, onlyBob)
}

func TestSalesReportsWithoutSession(t *testing.T) {
	svc, _, _ := newTestService(t, 0)
	_, err := svc.SalesByLicense(context.Background(), 1)
	assertNotFound(t, err, MsgNoSession)
	_, err = svc.SalesByVendor(context.Background(), 1, nil)
	assertNotFound(t, err, MsgNoSession)
}

func assertNotFound(t *testing.T, err error, message string) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, message, typed.Message())
}

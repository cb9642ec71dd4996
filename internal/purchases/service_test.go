package purchases

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamedepot-backend/internal/catalog"
	"github.com/angelmondragon/gamedepot-backend/internal/items"
	"github.com/angelmondragon/gamedepot-backend/internal/ledger"
	"github.com/angelmondragon/gamedepot-backend/pkg/auth"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
	"github.com/angelmondragon/gamedepot-backend/pkg/logger"
	"github.com/angelmondragon/gamedepot-backend/pkg/outbox"
)

var (
	operator = auth.Principal{UserID: "op-1", Role: enums.OperatorRoleManager}
	fixedNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc     Service
	conn    *gorm.DB
	session *models.Session
	vendor  *models.Vendor
	deposit *models.Deposit
	license *models.License
}

func newFixture(t *testing.T, rates dbtest.SessionRates) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	logg := logger.New(logger.Options{ServiceName: "purchases-test", Output: io.Discard})

	svc, err := NewService(ServiceParams{
		Purchases: NewRepository(conn),
		Items:     items.NewRepository(conn),
		Ledger:    ledger.NewRepository(conn),
		Catalog:   catalog.NewRepository(conn),
		Tx:        client,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:    logg,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	session := dbtest.MustCreateSession(t, conn, fixedNow.AddDate(0, 0, -1), fixedNow.AddDate(0, 0, 1), rates)
	vendor := dbtest.MustCreateVendor(t, conn, "alice")
	return &fixture{
		svc:     svc,
		conn:    conn,
		session: session,
		vendor:  vendor,
		deposit: dbtest.MustCreateDeposit(t, conn, vendor.ID, session.ID),
		license: dbtest.MustCreateLicense(t, conn, "Kosmos", "Catan"),
	}
}

func percent10() dbtest.SessionRates {
	return dbtest.SessionRates{Commission: "10", CommissionIsPercent: true}
}

func TestPurchaseSettlesBatch(t *testing.T) {
	f := newFixture(t, percent10())
	cheap := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "50", enums.ItemStatusListed, 5)
	dear := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "70", enums.ItemStatusListed, 3)
	ids := append(dbtest.ItemIDs(cheap), dbtest.ItemIDs(dear)...)

	created, err := f.svc.Purchase(context.Background(), operator, PurchaseInput{ItemIDs: ids})
	require.NoError(t, err)
	require.Len(t, created, 8)
	for _, p := range created {
		assert.NotZero(t, p.ID)
		assert.Equal(t, f.session.ID, p.SessionID)
		assert.Nil(t, p.BuyerID)
		assert.True(t, p.TransactedAt.Equal(fixedNow))
	}
	assert.Equal(t, "5.00", created[0].Commission.StringFixed(2))
	assert.Equal(t, "7.00", created[7].Commission.StringFixed(2))

	for _, status := range dbtest.ItemStatuses(t, f.conn, ids) {
		assert.Equal(t, enums.ItemStatusSold, status)
	}

	entry, err := ledger.NewRepository(f.conn).Get(context.Background(), f.vendor.ID, f.session.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "460.00", entry.AmountGenerated.StringFixed(2))
	assert.Equal(t, "414.00", entry.AmountOwed.StringFixed(2))
	assert.Equal(t, "46.00", entry.PlatformRevenue().StringFixed(2))

	total, err := NewRepository(f.conn).SumCommission(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, "46.00", total.StringFixed(2))
	assert.Equal(t, int64(1), dbtest.CountRows(t, f.conn, &models.OutboxEvent{}))
}

func TestPurchaseWithPromoAndBuyer(t *testing.T) {
	f := newFixture(t, percent10())
	buyer := dbtest.MustCreateBuyer(t, f.conn, "bob")
	dbtest.MustCreatePromo(t, f.conn, "SOLDES20", 20)
	rows := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "40", enums.ItemStatusListed, 2)

	created, err := f.svc.Purchase(context.Background(), operator, PurchaseInput{
		ItemIDs:   dbtest.ItemIDs(rows),
		PromoCode: " SOLDES20 ",
		BuyerID:   &buyer.ID,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.NotNil(t, created[0].BuyerID)
	assert.Equal(t, buyer.ID, *created[0].BuyerID)
	assert.Equal(t, "3.20", created[0].Commission.StringFixed(2))

	entry, err := ledger.NewRepository(f.conn).Get(context.Background(), f.vendor.ID, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, "64.00", entry.AmountGenerated.StringFixed(2))
	assert.Equal(t, "57.60", entry.AmountOwed.StringFixed(2))
}

func TestPurchaseCreditsEachVendor(t *testing.T) {
	f := newFixture(t, dbtest.SessionRates{Commission: "3"})
	other := dbtest.MustCreateVendor(t, f.conn, "carol")
	otherDeposit := dbtest.MustCreateDeposit(t, f.conn, other.ID, f.session.ID)
	mine := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "20", enums.ItemStatusListed, 2)
	theirs := dbtest.MustCreateItems(t, f.conn, otherDeposit.ID, f.license.ID, "10", enums.ItemStatusListed, 1)

	_, err := f.svc.Purchase(context.Background(), operator, PurchaseInput{
		ItemIDs: append(dbtest.ItemIDs(mine), dbtest.ItemIDs(theirs)...),
	})
	require.NoError(t, err)

	balances, err := ledger.NewRepository(f.conn).ListBySession(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "34.00", balances[0].AmountOwed.StringFixed(2))
	assert.Equal(t, "7.00", balances[1].AmountOwed.StringFixed(2))
}

func TestPurchaseFlatCommissionAboveSalePrice(t *testing.T) {
	cases := []struct {
		name      string
		price     string
		promo     int
		owed      string
		generated string
	}{
		{"cheap item", "3", 0, "-2.00", "3.00"},
		{"full promo", "40", 100, "-5.00", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, dbtest.SessionRates{Commission: "5"})
			input := PurchaseInput{}
			if tc.promo > 0 {
				dbtest.MustCreatePromo(t, f.conn, "OFFERT", tc.promo)
				input.PromoCode = "OFFERT"
			}
			rows := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, tc.price, enums.ItemStatusListed, 1)
			input.ItemIDs = dbtest.ItemIDs(rows)

			created, err := f.svc.Purchase(context.Background(), operator, input)
			require.NoError(t, err)
			require.Len(t, created, 1)
			assert.Equal(t, "5.00", created[0].Commission.StringFixed(2))

			entry, err := ledger.NewRepository(f.conn).Get(context.Background(), f.vendor.ID, f.session.ID)
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, tc.owed, entry.AmountOwed.StringFixed(2))
			assert.Equal(t, tc.generated, entry.AmountGenerated.StringFixed(2))
			assert.Equal(t, "5.00", entry.PlatformRevenue().StringFixed(2))
			assert.Equal(t, enums.ItemStatusSold, dbtest.ItemStatuses(t, f.conn, input.ItemIDs)[input.ItemIDs[0]])
		})
	}
}

func TestPurchaseRejectsUnavailableItems(t *testing.T) {
	f := newFixture(t, percent10())
	listed := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "10", enums.ItemStatusListed, 1)
	depositable := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "10", enums.ItemStatusDepositable, 1)
	ids := []uint{listed[0].ID, depositable[0].ID, 999}

	_, err := f.svc.Purchase(context.Background(), operator, PurchaseInput{ItemIDs: ids})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBatchRejected, typed.Code())
	assert.Equal(t, MsgItemsNotAvailable+pkgerrors.JoinIDs([]uint{depositable[0].ID, 999}), typed.Message())

	assert.Equal(t, enums.ItemStatusListed, dbtest.ItemStatuses(t, f.conn, dbtest.ItemIDs(listed))[listed[0].ID])
	assert.Zero(t, dbtest.CountRows(t, f.conn, &models.Purchase{}))
	assert.Zero(t, dbtest.CountRows(t, f.conn, &models.VendorBalance{}))
}

func TestPurchaseRejectsSoldItemsOnSecondAttempt(t *testing.T) {
	f := newFixture(t, percent10())
	rows := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "10", enums.ItemStatusListed, 2)
	ids := dbtest.ItemIDs(rows)

	_, err := f.svc.Purchase(context.Background(), operator, PurchaseInput{ItemIDs: ids[:1]})
	require.NoError(t, err)
	_, err = f.svc.Purchase(context.Background(), operator, PurchaseInput{ItemIDs: ids})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBatchRejected))
	assert.Equal(t, int64(1), dbtest.CountRows(t, f.conn, &models.Purchase{}))
}

func TestPurchaseOrphanItemRollsBack(t *testing.T) {
	f := newFixture(t, percent10())
	good := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "10", enums.ItemStatusListed, 1)
	orphan := dbtest.MustCreateItems(t, f.conn, 4242, f.license.ID, "10", enums.ItemStatusListed, 1)

	_, err := f.svc.Purchase(context.Background(), operator, PurchaseInput{
		ItemIDs: []uint{good[0].ID, orphan[0].ID},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	assert.Zero(t, dbtest.CountRows(t, f.conn, &models.Purchase{}))
	assert.Zero(t, dbtest.CountRows(t, f.conn, &models.OutboxEvent{}))
}

func TestPurchasePreconditions(t *testing.T) {
	f := newFixture(t, percent10())
	rows := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "10", enums.ItemStatusListed, 1)
	ids := dbtest.ItemIDs(rows)
	missingBuyer := uint(77)

	cases := []struct {
		name    string
		input   PurchaseInput
		code    pkgerrors.Code
		message string
	}{
		{"empty", PurchaseInput{}, pkgerrors.CodeValidation, "Au moins un jeu est requis."},
		{"bad promo", PurchaseInput{ItemIDs: ids, PromoCode: "NOPE"}, pkgerrors.CodeValidation, MsgInvalidPromo},
		{"unknown buyer", PurchaseInput{ItemIDs: ids, BuyerID: &missingBuyer}, pkgerrors.CodeNotFound, MsgBuyerNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Purchase(context.Background(), operator, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tc.code, typed.Code())
			assert.Equal(t, tc.message, typed.Message())
		})
	}
	assert.Equal(t, enums.ItemStatusListed, dbtest.ItemStatuses(t, f.conn, ids)[ids[0]])
}

func TestPurchaseWithoutActiveSession(t *testing.T) {
	f := newFixture(t, percent10())
	rows := dbtest.MustCreateItems(t, f.conn, f.deposit.ID, f.license.ID, "10", enums.ItemStatusListed, 1)
	require.NoError(t, f.conn.Model(&models.Session{}).Where("id = ?", f.session.ID).
		Update("end_date", fixedNow.Add(-time.Hour)).Error)

	_, err := f.svc.Purchase(context.Background(), operator, PurchaseInput{ItemIDs: dbtest.ItemIDs(rows)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, MsgNoActiveSession, typed.Message())
}

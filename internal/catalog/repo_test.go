package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
)

func TestFindReferenceRecords(t *testing.T) {
	client := dbtest.Open(t)
	db := client.DB()
	repo := NewRepository(db)
	ctx := context.Background()

	publisher := models.Publisher{Name: "Asmodee"}
	require.NoError(t, db.Create(&publisher).Error)
	license := models.License{Name: "Catan", PublisherID: publisher.ID}
	require.NoError(t, db.Create(&license).Error)
	vendor := models.Vendor{Name: "Alice"}
	require.NoError(t, db.Create(&vendor).Error)
	buyer := models.Buyer{Name: "Bob"}
	require.NoError(t, db.Create(&buyer).Error)
	require.NoError(t, db.Create(&models.PromoCode{Code: "NOEL10", Reduction: 10}).Error)

	gotVendor, err := repo.FindVendor(ctx, vendor.ID)
	require.NoError(t, err)
	require.NotNil(t, gotVendor)
	assert.Equal(t, "Alice", gotVendor.Name)

	gotBuyer, err := repo.FindBuyer(ctx, buyer.ID)
	require.NoError(t, err)
	require.NotNil(t, gotBuyer)

	licenses, err := repo.FindLicenses(ctx, []uint{license.ID, 999})
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.Equal(t, publisher.ID, licenses[license.ID].PublisherID)
	_, missing := licenses[999]
	assert.False(t, missing)

	empty, err := repo.FindLicenses(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	promo, err := repo.FindPromoCode(ctx, " NOEL10 ")
	require.NoError(t, err)
	require.NotNil(t, promo)
	assert.Equal(t, 10, promo.Reduction)

	missingVendor, err := repo.FindVendor(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missingVendor)

	missingPromo, err := repo.FindPromoCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missingPromo)

	emptyPromo, err := repo.FindPromoCode(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, emptyPromo)
}

func TestSessionResolution(t *testing.T) {
	client := dbtest.Open(t)
	db := client.DB()
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	none, err := repo.CurrentOrLatestSession(ctx, now)
	require.NoError(t, err)
	assert.Nil(t, none)

	older := models.Session{
		StartDate:      now.AddDate(0, -3, 0),
		EndDate:        now.AddDate(0, -2, 0),
		CommissionRate: decimal.NewFromInt(5),
	}
	ended := models.Session{
		StartDate:      now.AddDate(0, -1, 0),
		EndDate:        now.AddDate(0, 0, -1),
		CommissionRate: decimal.NewFromInt(10),
	}
	future := models.Session{
		StartDate: now.AddDate(0, 1, 0),
		EndDate:   now.AddDate(0, 2, 0),
	}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&ended).Error)
	require.NoError(t, db.Create(&future).Error)

	active, err := repo.ActiveSession(ctx, now)
	require.NoError(t, err)
	assert.Nil(t, active)

	latest, err := repo.CurrentOrLatestSession(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, ended.ID, latest.ID)

	wide := models.Session{StartDate: now.AddDate(0, 0, -20), EndDate: now.AddDate(0, 0, 20)}
	narrow := models.Session{StartDate: now.AddDate(0, 0, -2), EndDate: now.AddDate(0, 0, 2)}
	require.NoError(t, db.Create(&wide).Error)
	require.NoError(t, db.Create(&narrow).Error)

	active, err = repo.ActiveSession(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, narrow.ID, active.ID)

	current, err := repo.CurrentOrLatestSession(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, narrow.ID, current.ID)
}

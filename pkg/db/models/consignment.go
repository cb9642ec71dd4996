package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
)

// Deposit is one vendor drop-off. Fee is fixed at creation.
type Deposit struct {
	ID          uint            `gorm:"column:id;primaryKey"`
	VendorID    uint            `gorm:"column:vendor_id;not null;index"`
	SessionID   uint            `gorm:"column:session_id;not null;index"`
	Fee         decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null"`
	DepositedAt time.Time       `gorm:"column:deposited_at;not null"`
}

// Item is one physical copy of a game held on consignment.
type Item struct {
	ID        uint             `gorm:"column:id;primaryKey"`
	LicenseID uint             `gorm:"column:license_id;not null;index"`
	Price     decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Status    enums.ItemStatus `gorm:"column:status;type:varchar(20);not null;index"`
	DepositID uint             `gorm:"column:deposit_id;not null;index"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Purchase records the sale of a single item. Rows are never updated.
type Purchase struct {
	ID           uint            `gorm:"column:id;primaryKey"`
	ItemID       uint            `gorm:"column:item_id;not null;uniqueIndex"`
	BuyerID      *uint           `gorm:"column:buyer_id"`
	SessionID    uint            `gorm:"column:session_id;not null;index"`
	TransactedAt time.Time       `gorm:"column:transacted_at;not null"`
	Commission   decimal.Decimal `gorm:"column:commission;type:numeric(12,2);not null"`
}

// VendorBalance is the running ledger entry for one (vendor, session).
// AmountOwed goes negative when a flat commission exceeds the sale price.
type VendorBalance struct {
	ID              uint            `gorm:"column:id;primaryKey"`
	VendorID        uint            `gorm:"column:vendor_id;not null;uniqueIndex:ux_vendor_balances_vendor_session"`
	SessionID       uint            `gorm:"column:session_id;not null;uniqueIndex:ux_vendor_balances_vendor_session"`
	AmountOwed      decimal.Decimal `gorm:"column:amount_owed;type:numeric(12,2);not null;default:0"`
	AmountGenerated decimal.Decimal `gorm:"column:amount_generated;type:numeric(12,2);not null;default:0;check:chk_vendor_balances_generated,amount_generated >= 0"`
	AmountPaid      decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// PlatformRevenue is what the operator kept from this vendor's sales.
func (v VendorBalance) PlatformRevenue() decimal.Decimal {
	return v.AmountGenerated.Sub(v.AmountOwed).Sub(v.AmountPaid)
}

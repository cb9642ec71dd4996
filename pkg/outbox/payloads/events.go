package payloads

import "github.com/angelmondragon/gamedepot-backend/pkg/enums"

// DepositCreatedEvent is emitted once a deposit and all of its items exist.
type DepositCreatedEvent struct {
	DepositID uint   `json:"deposit_id"`
	VendorID  uint   `json:"vendor_id"`
	SessionID uint   `json:"session_id"`
	Fee       string `json:"fee"`
	PromoCode string `json:"promo_code,omitempty"`
	ItemIDs   []uint `json:"item_ids"`
}

// ItemsStatusChangedEvent reports an operator status override.
type ItemsStatusChangedEvent struct {
	ItemIDs []uint           `json:"item_ids"`
	Status  enums.ItemStatus `json:"status"`
}

// ItemsRetrievedEvent reports items handed back to their vendor.
type ItemsRetrievedEvent struct {
	ItemIDs []uint `json:"item_ids"`
}

// VendorSettlement is one vendor's share of a purchase batch.
type VendorSettlement struct {
	VendorID        uint   `json:"vendor_id"`
	AmountOwed      string `json:"amount_owed"`
	AmountGenerated string `json:"amount_generated"`
}

// PurchaseSettledEvent summarizes a settled purchase batch.
type PurchaseSettledEvent struct {
	SessionID       uint               `json:"session_id"`
	BuyerID         *uint              `json:"buyer_id,omitempty"`
	PromoCode       string             `json:"promo_code,omitempty"`
	PurchaseIDs     []uint             `json:"purchase_ids"`
	ItemIDs         []uint             `json:"item_ids"`
	TotalCommission string             `json:"total_commission"`
	Vendors         []VendorSettlement `json:"vendors"`
}

// VendorPayoutRecordedEvent is emitted when a vendor's owed balance is paid out.
type VendorPayoutRecordedEvent struct {
	VendorID   uint   `json:"vendor_id"`
	SessionID  uint   `json:"session_id"`
	AmountPaid string `json:"amount_paid"`
}

package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateDeposit       OutboxAggregateType = "deposit"
	AggregateItemBatch     OutboxAggregateType = "item_batch"
	AggregatePurchaseBatch OutboxAggregateType = "purchase_batch"
	AggregateVendorBalance OutboxAggregateType = "vendor_balance"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDeposit,
	AggregateItemBatch,
	AggregatePurchaseBatch,
	AggregateVendorBalance,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a settlement fact published downstream.
type OutboxEventType string

const (
	EventDepositCreated       OutboxEventType = "deposit_created"
	EventItemsStatusChanged   OutboxEventType = "items_status_changed"
	EventItemsRetrieved       OutboxEventType = "items_retrieved"
	EventPurchaseSettled      OutboxEventType = "purchase_settled"
	EventVendorPayoutRecorded OutboxEventType = "vendor_payout_recorded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventDepositCreated,
	EventItemsStatusChanged,
	EventItemsRetrieved,
	EventPurchaseSettled,
	EventVendorPayoutRecorded,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

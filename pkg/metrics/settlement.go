package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
)

// Operation labels.
const (
	OperationDeposit      = "deposit"
	OperationStatusUpdate = "status_update"
	OperationRetrieve     = "retrieve"
	OperationPurchase     = "purchase"
	OperationPayout       = "payout"
)

// Amount kinds.
const (
	AmountDepositFee = "deposit_fee"
	AmountGenerated  = "generated"
	AmountCommission = "commission"
	AmountPaidOut    = "paid_out"
)

// SettlementMetrics records batch outcomes and money flows.
type SettlementMetrics struct {
	batches  *prometheus.CounterVec
	items    *prometheus.CounterVec
	amounts  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_batches_total",
		Help: "Settlement batches by operation and outcome.",
	}, []string{"operation", "outcome"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_items_total",
		Help: "Items touched by successful settlement batches.",
	}, []string{"operation"})
	amounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_amount_total",
		Help: "Money moved by settlement, by kind.",
	}, []string{"kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_batch_duration_seconds",
		Help:    "Duration of settlement batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(batches, items, amounts, duration)
	return &SettlementMetrics{
		batches:  batches,
		items:    items,
		amounts:  amounts,
		duration: duration,
	}
}

// ObserveBatch records the outcome and duration of one batch.
func (m *SettlementMetrics) ObserveBatch(operation string, err error, duration time.Duration) {
	if m == nil || m.batches == nil {
		return
	}
	op := normalizeLabel(operation)
	m.batches.WithLabelValues(op, Outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// AddItems counts items processed by a successful batch.
func (m *SettlementMetrics) AddItems(operation string, n int) {
	if m == nil || m.items == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(normalizeLabel(operation)).Add(float64(n))
}

// AddAmount accumulates a non-negative money amount.
func (m *SettlementMetrics) AddAmount(kind string, amount decimal.Decimal) {
	if m == nil || m.amounts == nil || amount.IsNegative() {
		return
	}
	m.amounts.WithLabelValues(normalizeLabel(kind)).Add(amount.InexactFloat64())
}

// Outcome classifies a batch error into a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return "error"
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeBatchRejected:
		return "rejected"
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeConflict:
		return "conflict"
	default:
		return "error"
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

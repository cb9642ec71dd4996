package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is a sales period. Its rates apply to deposits and purchases made
// while now falls inside [StartDate, EndDate].
type Session struct {
	ID                  uint            `gorm:"column:id;primaryKey"`
	StartDate           time.Time       `gorm:"column:start_date;not null;index"`
	EndDate             time.Time       `gorm:"column:end_date;not null;index"`
	CommissionRate      decimal.Decimal `gorm:"column:commission_rate;type:numeric(12,2);not null;default:0"`
	CommissionIsPercent bool            `gorm:"column:commission_is_percent;not null"`
	DepositFeeRate      decimal.Decimal `gorm:"column:deposit_fee_rate;type:numeric(12,2);not null;default:0"`
	DepositFeeIsPercent bool            `gorm:"column:deposit_fee_is_percent;not null"`
}

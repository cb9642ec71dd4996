package deposits

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// Line is one license in a deposit: quantity copies at a unit price.
type Line struct {
	LicenseID uint
	Quantity  int
	Price     decimal.Decimal
}

// FeeRates are the deposit fee terms of a session.
type FeeRates struct {
	Rate      decimal.Decimal
	IsPercent bool
}

// RatesFromSession extracts the deposit fee terms.
func RatesFromSession(s models.Session) FeeRates {
	return FeeRates{Rate: s.DepositFeeRate, IsPercent: s.DepositFeeIsPercent}
}

// ComputeFee returns the unrounded deposit fee. In percent mode the rate
// applies to the total declared price; otherwise it is charged per copy. The
// promo reduction (0 to 100) is then taken off the fee.
func ComputeFee(lines []Line, rates FeeRates, reduction int) decimal.Decimal {
	totalPrice := decimal.Zero
	totalQuantity := decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		totalPrice = totalPrice.Add(line.Price.Mul(qty))
		totalQuantity = totalQuantity.Add(qty)
	}

	var fee decimal.Decimal
	if rates.IsPercent {
		fee = totalPrice.Mul(rates.Rate).Div(hundred)
	} else {
		fee = totalQuantity.Mul(rates.Rate)
	}

	if reduction > 0 {
		fee = fee.Sub(fee.Mul(decimal.NewFromInt(int64(reduction))).Div(hundred))
	}
	return fee
}

package purchases

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamedepot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamedepot-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// SaleCandidate is a listed item with its ownership chain resolved up front.
// VendorID is nil when the deposit or vendor row is missing.
type SaleCandidate struct {
	ItemID    uint
	Price     decimal.Decimal
	DepositID *uint
	VendorID  *uint
}

// Terms are the commission terms of the session a sale settles in.
type Terms struct {
	CommissionRate      decimal.Decimal
	CommissionIsPercent bool
}

// TermsFromSession extracts the commission terms.
func TermsFromSession(s models.Session) Terms {
	return Terms{CommissionRate: s.CommissionRate, CommissionIsPercent: s.CommissionIsPercent}
}

// ItemSettlement is the computed outcome for one item.
type ItemSettlement struct {
	ItemID          uint
	VendorID        uint
	DiscountedPrice decimal.Decimal
	Commission      decimal.Decimal
	AmountOwed      decimal.Decimal
}

// VendorTotal accumulates one vendor's share of a batch.
type VendorTotal struct {
	VendorID        uint
	AmountOwed      decimal.Decimal
	AmountGenerated decimal.Decimal
}

// Settlement is the full result of settling a batch.
type Settlement struct {
	Items           []ItemSettlement
	Vendors         []VendorTotal
	TotalCommission decimal.Decimal
}

// Settle prices every candidate. In flat mode the commission is the rate
// itself for each item, whatever its price. Amounts are rounded to cents per
// item so ledger totals match the stored purchase rows.
func Settle(candidates []SaleCandidate, terms Terms, reduction int) (*Settlement, error) {
	factor := hundred.Sub(decimal.NewFromInt(int64(reduction))).Div(hundred)
	out := &Settlement{
		Items:           make([]ItemSettlement, 0, len(candidates)),
		TotalCommission: decimal.Zero,
	}
	totals := map[uint]*VendorTotal{}

	for _, c := range candidates {
		if c.VendorID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("item %d has no resolvable vendor", c.ItemID))
		}

		discounted := c.Price
		if reduction > 0 {
			discounted = c.Price.Mul(factor)
		}
		discounted = discounted.Round(2)

		var commission decimal.Decimal
		if terms.CommissionIsPercent {
			commission = discounted.Mul(terms.CommissionRate).Div(hundred)
		} else {
			commission = terms.CommissionRate
		}
		commission = commission.Round(2)
		owed := discounted.Sub(commission)

		out.Items = append(out.Items, ItemSettlement{
			ItemID:          c.ItemID,
			VendorID:        *c.VendorID,
			DiscountedPrice: discounted,
			Commission:      commission,
			AmountOwed:      owed,
		})
		out.TotalCommission = out.TotalCommission.Add(commission)

		total, ok := totals[*c.VendorID]
		if !ok {
			total = &VendorTotal{VendorID: *c.VendorID, AmountOwed: decimal.Zero, AmountGenerated: decimal.Zero}
			totals[*c.VendorID] = total
		}
		total.AmountOwed = total.AmountOwed.Add(owed)
		total.AmountGenerated = total.AmountGenerated.Add(discounted)
	}

	out.Vendors = make([]VendorTotal, 0, len(totals))
	for _, total := range totals {
		out.Vendors = append(out.Vendors, *total)
	}
	sort.Slice(out.Vendors, func(i, j int) bool {
		return out.Vendors[i].VendorID < out.Vendors[j].VendorID
	})
	return out, nil
}

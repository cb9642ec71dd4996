package deposits

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name      string
		lines     []Line
		rates     FeeRates
		reduction int
		want      string
	}{
		{
			name:      "percent with promo",
			lines:     []Line{{LicenseID: 1, Quantity: 10, Price: d("60")}},
			rates:     FeeRates{Rate: d("5"), IsPercent: true},
			reduction: 10,
			want:      "27.00",
		},
		{
			name:  "percent without promo",
			lines: []Line{{LicenseID: 1, Quantity: 2, Price: d("12.50")}, {LicenseID: 2, Quantity: 1, Price: d("30")}},
			rates: FeeRates{Rate: d("5"), IsPercent: true},
			want:  "2.75",
		},
		{
			name:  "flat per copy",
			lines: []Line{{LicenseID: 1, Quantity: 5, Price: d("50")}, {LicenseID: 2, Quantity: 3, Price: d("70")}},
			rates: FeeRates{Rate: d("1.5")},
			want:  "12.00",
		},
		{
			name:      "flat with full promo",
			lines:     []Line{{LicenseID: 1, Quantity: 4, Price: d("10")}},
			rates:     FeeRates{Rate: d("2")},
			reduction: 100,
			want:      "0.00",
		},
		{
			name:  "zero rate",
			lines: []Line{{LicenseID: 1, Quantity: 4, Price: d("10")}},
			rates: FeeRates{Rate: decimal.Zero, IsPercent: true},
			want:  "0.00",
		},
		{
			name:      "rounding happens only at output",
			lines:     []Line{{LicenseID: 1, Quantity: 3, Price: d("3.33")}},
			rates:     FeeRates{Rate: d("7"), IsPercent: true},
			reduction: 15,
			want:      "0.59",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeFee(tc.lines, tc.rates, tc.reduction).StringFixed(2)
			if got != tc.want {
				t.Fatalf("ComputeFee() = %s, want %s", got, tc.want)
			}
		})
	}
}

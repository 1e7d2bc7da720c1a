// Package money converts between display amounts and the signed integer
// milliunits stored in the database. One currency unit equals 1000 milliunits,
// so fractional cents from imported files survive the round trip. The sign of
// an amount is the sole income/expense discriminator: positive is income,
// negative is expense.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MilliunitsPerUnit is the storage scale factor.
const MilliunitsPerUnit = 1000

var milliFactor = decimal.NewFromInt(MilliunitsPerUnit)

// ToMilliunits converts a decimal amount into stored milliunits, rounding
// half away from zero.
func ToMilliunits(amount decimal.Decimal) int64 {
	return amount.Mul(milliFactor).Round(0).IntPart()
}

// FromMilliunits converts stored milliunits back into a decimal amount.
func FromMilliunits(milli int64) decimal.Decimal {
	return decimal.NewFromInt(milli).Div(milliFactor)
}

// Parse coerces a raw amount string (as found in a spreadsheet cell or JSON
// payload) into milliunits. Thousands separators and surrounding whitespace
// are tolerated; anything else is an error.
func Parse(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return ToMilliunits(d), nil
}

// Format renders milliunits as a human-readable currency string, e.g.
// "-$4.50". Milliunits are rounded to the currency's minor unit for display.
func Format(milli int64, currencyCode string) string {
	currency := gomoney.GetCurrency(currencyCode)
	if currency == nil {
		currency = gomoney.GetCurrency(gomoney.USD)
	}

	minorFactor := decimal.New(1, int32(currency.Fraction))
	minor := FromMilliunits(milli).Mul(minorFactor).Round(0).IntPart()
	return gomoney.New(minor, currency.Code).Display()
}

// Float returns the amount as a float64 for JSON responses. Precision loss is
// acceptable at the display boundary only.
func Float(milli int64) float64 {
	f, _ := FromMilliunits(milli).Float64()
	return f
}

package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places carried by all monetary values.
const MoneyScale = 2

// RoundMoney rounds half-up to two decimals. All monetary amounts crossing
// a component boundary go through this, so repeated additions never drift.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseMoney parses a 2-decimal fixed point string like "36.50".
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundMoney(d), nil
}

// FormatMoney renders an amount with exactly two decimals for the wire.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

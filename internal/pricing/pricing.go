// Package pricing computes monetary totals over cart lines. All functions
// are pure: no state, identical inputs yield identical outputs.
package pricing

import (
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/cart"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/shopspring/decimal"
)

// LineTotal is unit price times requested quantity, rounded to money scale.
func LineTotal(l cart.Line) decimal.Decimal {
	return domain.RoundMoney(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// Subtotal sums the line totals. Order of lines does not affect the result.
func Subtotal(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l))
	}
	return domain.RoundMoney(total)
}

// FinalAmount is the payable amount after discount, clamped at zero.
// A discount larger than the subtotal is not an error; the sale is free.
func FinalAmount(lines []cart.Line, discount decimal.Decimal) decimal.Decimal {
	final := Subtotal(lines).Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return domain.RoundMoney(final)
}

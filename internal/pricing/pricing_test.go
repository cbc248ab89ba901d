package pricing

import (
	"testing"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/cart"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id, price string, qty int) cart.Line {
	return cart.Line{
		ProductID:     id,
		UnitPrice:     decimal.RequireFromString(price),
		Quantity:      qty,
		StockSnapshot: qty,
	}
}

func TestSubtotal_Scenario(t *testing.T) {
	// product A at 10.00 x2, product B at 5.50 x3 -> 36.50
	lines := []cart.Line{
		line("A", "10.00", 2),
		line("B", "5.50", 3),
	}

	assert.Equal(t, "36.50", domain.FormatMoney(Subtotal(lines)))
}

func TestSubtotal_Empty(t *testing.T) {
	assert.Equal(t, "0.00", domain.FormatMoney(Subtotal(nil)))
}

func TestSubtotal_OrderInvariant(t *testing.T) {
	a := []cart.Line{line("A", "10.00", 2), line("B", "5.50", 3), line("C", "0.99", 7)}
	b := []cart.Line{a[2], a[0], a[1]}

	assert.True(t, Subtotal(a).Equal(Subtotal(b)))
}

func TestSubtotal_NoFloatDrift(t *testing.T) {
	// 0.10 a hundred times is exactly 10.00 in decimal arithmetic.
	lines := make([]cart.Line, 100)
	for i := range lines {
		lines[i] = line("p", "0.10", 1)
	}
	assert.Equal(t, "10.00", domain.FormatMoney(Subtotal(lines)))
}

func TestFinalAmount_DiscountApplied(t *testing.T) {
	lines := []cart.Line{line("A", "10.00", 2), line("B", "5.50", 3)}
	discount := decimal.RequireFromString("3.00")

	assert.Equal(t, "33.50", domain.FormatMoney(FinalAmount(lines, discount)))
}

func TestFinalAmount_ClampsAtZero(t *testing.T) {
	// Discount over the subtotal is a free sale, not a negative payable.
	lines := []cart.Line{line("A", "10.00", 2), line("B", "5.50", 3)}
	discount := decimal.RequireFromString("50.00")

	final := FinalAmount(lines, discount)
	assert.Equal(t, "0.00", domain.FormatMoney(final))
	assert.False(t, final.IsNegative())
}

func TestFinalAmount_Deterministic(t *testing.T) {
	lines := []cart.Line{line("A", "19.99", 3)}
	discount := decimal.RequireFromString("7.47")

	first := FinalAmount(lines, discount)
	for i := 0; i < 10; i++ {
		require.True(t, first.Equal(FinalAmount(lines, discount)))
	}
}

func TestLineTotal_RoundsHalfUp(t *testing.T) {
	// 3 x 1.115 = 3.345 -> 3.35 with half-up rounding.
	l := line("A", "1.115", 3)
	assert.Equal(t, "3.35", domain.FormatMoney(LineTotal(l)))
}

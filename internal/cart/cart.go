package cart

import (
	"errors"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLineNotFound      = errors.New("line not found in cart")
	ErrNegativeDiscount  = errors.New("discount must not be negative")
)

// Line is one product's requested quantity within the cart.
// StockSnapshot is the available quantity captured at the most recent
// successful lookup; quantity edits validate against it, not against
// live inventory.
type Line struct {
	ProductID     string          `json:"product_id"`
	Barcode       string          `json:"barcode"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	StockSnapshot int             `json:"stock_snapshot"`
}

// Cart holds the pending line items for one till session. Lines keep
// insertion order for display; the cart exclusively owns them.
// Invariant: every line satisfies 0 < Quantity <= StockSnapshot.
type Cart struct {
	lines    []*Line
	index    map[string]int // product id -> position in lines
	discount decimal.Decimal
}

func New() *Cart {
	return &Cart{
		index:    make(map[string]int),
		discount: decimal.Zero,
	}
}

// AddOrIncrement inserts a line for the product or raises the existing
// quantity by the increment. The stock ceiling is the product's freshly
// looked-up quantity; the line's snapshot is refreshed on success. The
// requested quantity is never truncated to fit: a breach fails whole.
func (c *Cart) AddOrIncrement(p *domain.Product, by int) (*Line, error) {
	if by <= 0 {
		by = 1
	}

	pos, exists := c.index[p.ID]
	if !exists {
		if by > p.Quantity {
			return nil, ErrInsufficientStock
		}
		line := &Line{
			ProductID:     p.ID,
			Barcode:       p.Barcode,
			Name:          p.Name,
			Brand:         p.Brand,
			UnitPrice:     domain.RoundMoney(p.SalePrice),
			Quantity:      by,
			StockSnapshot: p.Quantity,
		}
		c.index[p.ID] = len(c.lines)
		c.lines = append(c.lines, line)
		return copyOf(line), nil
	}

	line := c.lines[pos]
	if line.Quantity+by > p.Quantity {
		return nil, ErrInsufficientStock
	}
	line.Quantity += by
	line.StockSnapshot = p.Quantity
	return copyOf(line), nil
}

// SetQuantity replaces a line's quantity. Zero or negative removes the
// line. A quantity above the stock snapshot fails and leaves the line
// unchanged.
func (c *Cart) SetQuantity(productID string, quantity int) (*Line, error) {
	pos, exists := c.index[productID]
	if !exists {
		return nil, ErrLineNotFound
	}

	if quantity <= 0 {
		c.Remove(productID)
		return nil, nil
	}

	line := c.lines[pos]
	if quantity > line.StockSnapshot {
		return nil, ErrInsufficientStock
	}
	line.Quantity = quantity
	return copyOf(line), nil
}

// Remove deletes the line if present; removing an absent product is a no-op.
func (c *Cart) Remove(productID string) {
	pos, exists := c.index[productID]
	if !exists {
		return
	}
	c.lines = append(c.lines[:pos], c.lines[pos+1:]...)
	delete(c.index, productID)
	for i := pos; i < len(c.lines); i++ {
		c.index[c.lines[i].ProductID] = i
	}
}

// Clear empties all lines and resets the discount to zero.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
	c.discount = decimal.Zero
}

// Lines returns a read-only snapshot in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = *l
	}
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// SetDiscount sets the session discount applied at checkout.
func (c *Cart) SetDiscount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeDiscount
	}
	c.discount = domain.RoundMoney(d)
	return nil
}

// Discount returns the current session discount.
func (c *Cart) Discount() decimal.Decimal {
	return c.discount
}

func copyOf(l *Line) *Line {
	cp := *l
	return &cp
}

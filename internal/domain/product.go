package domain

import "github.com/shopspring/decimal"

// Product is the catalog record resolved from a barcode scan.
// Quantity is the stock level known to the catalog at lookup time.
type Product struct {
	ID        string          `json:"id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Quantity  int             `json:"quantity"`
}

// InStock reports whether the product can be sold at all.
func (p *Product) InStock() bool {
	return p.Quantity > 0
}

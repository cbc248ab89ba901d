package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the fixed set of accepted payment types.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Valid reports whether the method is one of the accepted values.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

func (m PaymentMethod) String() string {
	return string(m)
}

// SaleItem is one committed line of a sale.
type SaleItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// SaleRequest is the POST /sales wire body. TotalAmount is the pre-discount
// subtotal; the collaborator derives the final amount from it and Discount.
type SaleRequest struct {
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// Sale is the immutable record of a committed transaction, written exactly
// once per successful checkout.
type Sale struct {
	ID            string          `json:"id"`
	Items         []SaleItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Package stock is the authoritative inventory and sale persistence
// collaborator: catalog lookups by barcode and the atomic sale commit that
// the tills rely on.
package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrEmptySale       = errors.New("sale has no items")
	ErrInvalidPayment  = errors.New("unknown payment method")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	ErrEventNotFound   = errors.New("outbox event not found")
)

// ConflictError reports every line whose stock was insufficient at commit
// time. The sale was rejected whole; no inventory was decremented.
type ConflictError struct {
	ProductIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for products %v", e.ProductIDs)
}

// OutboxEvent is a committed sale waiting to be published.
type OutboxEvent struct {
	ID          int64
	AggregateID string // sale id, used as the message key for ordering
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Store is the inventory + sale persistence contract. CreateSale must
// perform the stock check-and-decrement and the sale insert as one atomic
// operation: either every line commits or the whole sale is rejected with
// a *ConflictError. Two tills racing on the same product resolve here.
type Store interface {
	ProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	CreateSale(ctx context.Context, req *domain.SaleRequest) (*domain.Sale, error)
	SetStock(ctx context.Context, product *domain.Product) error
	UnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
	Close() error
}

func validateSale(req *domain.SaleRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptySale
	}
	if !req.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

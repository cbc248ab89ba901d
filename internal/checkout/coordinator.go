package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/cart"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/pricing"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrCheckoutInProgress   = errors.New("a checkout is already in flight")
)

// State tracks where a checkout attempt is in its lifecycle.
type State string

const (
	StateIdle       State = "IDLE"
	StateSubmitting State = "SUBMITTING"
	StateCommitted  State = "COMMITTED"
	StateRejected   State = "REJECTED"
	StateFailed     State = "FAILED"
)

func (s State) String() string {
	return string(s)
}

// Cart is the slice of cart behavior the coordinator needs. *cart.Cart
// satisfies it directly; callers running the cart behind a lock pass an
// adapter instead.
type Cart interface {
	Len() int
	Lines() []cart.Line
	Discount() decimal.Decimal
	Clear()
}

// SaleSubmitter submits a sale to the persistence collaborator. The
// collaborator re-validates stock for every line and decrements inventory in
// the same transaction that records the sale: the response is either a full
// commit or a full rejection, never partial.
type SaleSubmitter interface {
	Submit(ctx context.Context, req *domain.SaleRequest) (*domain.Sale, error)
}

// Coordinator drives the checkout protocol for one till's cart. It allows
// at most one in-flight submission and never retries on its own; retry is a
// caller decision, which is safe because a failed submission leaves the cart
// untouched.
type Coordinator struct {
	submitter SaleSubmitter

	mu       sync.Mutex
	inFlight bool
	state    State
}

func NewCoordinator(submitter SaleSubmitter) *Coordinator {
	return &Coordinator{
		submitter: submitter,
		state:     StateIdle,
	}
}

// Checkout validates the cart, submits the sale once, and on commit clears
// the cart (discount included). On rejection or failure the cart is left
// unchanged so the cashier can adjust and resubmit.
func (c *Coordinator) Checkout(ctx context.Context, crt Cart, method domain.PaymentMethod) (*domain.Sale, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}

	// Local validation happens before any network call.
	if crt.Len() == 0 {
		c.mu.Unlock()
		return nil, ErrEmptyCart
	}
	if !method.Valid() {
		c.mu.Unlock()
		return nil, ErrInvalidPaymentMethod
	}

	req := buildSaleRequest(crt, method)
	c.inFlight = true
	c.state = StateSubmitting
	c.mu.Unlock()

	sale, err := c.submitter.Submit(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		var conflict *StockConflictError
		if errors.As(err, &conflict) {
			c.state = StateRejected
			log.Printf("checkout rejected, insufficient stock for products %v", conflict.ProductIDs)
			return nil, err
		}
		// Cancelled or transport-failed submissions are never treated as
		// committed; the cart stays intact for a manual retry.
		c.state = StateFailed
		return nil, fmt.Errorf("submit sale: %w", err)
	}

	c.state = StateCommitted
	crt.Clear()
	return sale, nil
}

// LastState reports the most recent lifecycle state for display.
func (c *Coordinator) LastState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func buildSaleRequest(crt Cart, method domain.PaymentMethod) *domain.SaleRequest {
	lines := crt.Lines()
	items := make([]domain.SaleItem, len(lines))
	for i, l := range lines {
		items[i] = domain.SaleItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
			Total:     pricing.LineTotal(l),
		}
	}
	return &domain.SaleRequest{
		Items:         items,
		TotalAmount:   pricing.Subtotal(lines),
		Discount:      crt.Discount(),
		PaymentMethod: method,
	}
}

// Package pos ties one till's cart, catalog lookups, and checkout protocol
// together.
package pos

import (
	"context"
	"errors"
	"sync"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/cart"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/catalog"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/checkout"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/pricing"
	"github.com/shopspring/decimal"
)

// ErrOutOfStock is raised when a scanned product has no stock at all; it is
// surfaced without touching the cart.
var ErrOutOfStock = errors.New("product is out of stock")

// Totals is the read-only pricing view recomputed on every mutation.
type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	FinalAmount decimal.Decimal
}

// Session is one cashier operating one till. All operations serialize
// behind a single mutex, matching the one-input-queue model of the till;
// the only suspension points are the catalog and sale network calls.
type Session struct {
	mu          sync.Mutex
	cart        *cart.Cart
	finder      catalog.Finder
	coordinator *checkout.Coordinator
}

func NewSession(finder catalog.Finder, submitter checkout.SaleSubmitter) *Session {
	return &Session{
		cart:        cart.New(),
		finder:      finder,
		coordinator: checkout.NewCoordinator(submitter),
	}
}

// Scan resolves a barcode and increments the product's line by one. Each
// scan of a burst is an independent increment; the stock ceiling comes from
// the freshly resolved quantity.
func (s *Session) Scan(ctx context.Context, barcode string) (*cart.Line, error) {
	product, err := s.finder.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if !product.InStock() {
		return nil, ErrOutOfStock
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.AddOrIncrement(product, 1)
}

// SetQuantity edits a line; zero or negative removes it.
func (s *Session) SetQuantity(productID string, quantity int) (*cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.SetQuantity(productID, quantity)
}

// Remove deletes a line; absent lines are a no-op.
func (s *Session) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID)
}

// Clear empties the cart and resets the discount.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

// SetDiscount sets the session discount applied at checkout.
func (s *Session) SetDiscount(d decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.SetDiscount(d)
}

// Lines returns the display snapshot in insertion order.
func (s *Session) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// Totals recomputes the pricing view from current cart state.
func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.cart.Lines()
	return Totals{
		Subtotal:    pricing.Subtotal(lines),
		Discount:    s.cart.Discount(),
		FinalAmount: pricing.FinalAmount(lines, s.cart.Discount()),
	}
}

// cacheInvalidator is implemented by finders that keep a barcode cache.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, barcode string)
}

// Checkout submits the cart as a sale. The coordinator sees the cart
// through a locked adapter, so no lock is held across the submission; its
// in-flight guard rejects a second checkout while one is pending. A commit
// changes stock, so cached barcodes of the sold lines are invalidated.
func (s *Session) Checkout(ctx context.Context, method domain.PaymentMethod) (*domain.Sale, error) {
	lines := s.Lines()

	sale, err := s.coordinator.Checkout(ctx, lockedCart{mu: &s.mu, cart: s.cart}, method)
	if err != nil {
		return nil, err
	}

	if inv, ok := s.finder.(cacheInvalidator); ok {
		for _, l := range lines {
			inv.Invalidate(ctx, l.Barcode)
		}
	}
	return sale, nil
}

// lockedCart serializes the coordinator's cart access against the till's
// own mutations.
type lockedCart struct {
	mu   *sync.Mutex
	cart *cart.Cart
}

func (l lockedCart) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.Len()
}

func (l lockedCart) Lines() []cart.Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.Lines()
}

func (l lockedCart) Discount() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cart.Discount()
}

func (l lockedCart) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cart.Clear()
}

// CheckoutState reports the coordinator's last lifecycle state.
func (s *Session) CheckoutState() checkout.State {
	return s.coordinator.LastState()
}

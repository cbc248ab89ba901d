package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore implements Store with in-memory storage for tests and local
// runs. The single write lock makes every sale commit atomic.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[string]*domain.Product // product id -> product
	byBarcode map[string]string          // barcode -> product id
	sales     map[string]*domain.Sale
	events    []*OutboxEvent
	nextEvent int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]*domain.Product),
		byBarcode: make(map[string]string),
		sales:     make(map[string]*domain.Sale),
		nextEvent: 1,
	}
}

func (s *MemoryStore) ProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byBarcode[barcode]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := *s.products[id]
	return &p, nil
}

func (s *MemoryStore) CreateSale(_ context.Context, req *domain.SaleRequest) (*domain.Sale, error) {
	if err := validateSale(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: every line must be satisfiable; collect all offenders so
	// the till can show the cashier the full list.
	var conflicts []string
	for _, item := range req.Items {
		p, exists := s.products[item.ProductID]
		if !exists || p.Quantity < item.Quantity {
			conflicts = append(conflicts, item.ProductID)
		}
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{ProductIDs: conflicts}
	}

	// Second pass: decrement stock for all lines.
	for _, item := range req.Items {
		s.products[item.ProductID].Quantity -= item.Quantity
	}

	sale := newSale(req)
	s.sales[sale.ID] = sale

	payload, err := json.Marshal(sale)
	if err != nil {
		return nil, fmt.Errorf("marshal sale payload: %w", err)
	}
	s.events = append(s.events, &OutboxEvent{
		ID:          s.nextEvent,
		AggregateID: sale.ID,
		EventType:   "sale.committed",
		Payload:     payload,
		CreatedAt:   sale.CreatedAt,
	})
	s.nextEvent++

	return sale, nil
}

func (s *MemoryStore) SetStock(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *product
	s.products[p.ID] = &p
	s.byBarcode[p.Barcode] = p.ID
	return nil
}

func (s *MemoryStore) UnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*OutboxEvent, 0, limit)
	for _, e := range s.events {
		if len(out) == limit {
			break
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) MarkEventProcessed(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}

func (s *MemoryStore) Close() error {
	return nil
}

func newSale(req *domain.SaleRequest) *domain.Sale {
	// The subtotal is recomputed from the lines; the client-sent
	// total_amount is advisory.
	subtotal := decimal.Zero
	for _, item := range req.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = domain.RoundMoney(subtotal)

	final := subtotal.Sub(req.Discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return &domain.Sale{
		ID:            uuid.New().String(),
		Items:         req.Items,
		Subtotal:      subtotal,
		Discount:      domain.RoundMoney(req.Discount),
		FinalAmount:   domain.RoundMoney(final),
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	}
}

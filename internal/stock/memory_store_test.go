package stock

import (
	"context"
	"sync"
	"testing"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SetStock(ctx, &domain.Product{
		ID: "A", Barcode: "869001", Name: "Sterile Gauze", Brand: "MedLine",
		SalePrice: decimal.RequireFromString("10.00"), Quantity: 5,
	}))
	require.NoError(t, s.SetStock(ctx, &domain.Product{
		ID: "B", Barcode: "869002", Name: "Saline 500ml", Brand: "Baxter",
		SalePrice: decimal.RequireFromString("5.50"), Quantity: 3,
	}))
	return s
}

func saleReq(items ...domain.SaleItem) *domain.SaleRequest {
	total := decimal.Zero
	for _, i := range items {
		total = total.Add(i.Total)
	}
	return &domain.SaleRequest{
		Items:         items,
		TotalAmount:   total,
		Discount:      decimal.Zero,
		PaymentMethod: domain.PaymentCash,
	}
}

func item(id string, qty int, price string) domain.SaleItem {
	p := decimal.RequireFromString(price)
	return domain.SaleItem{
		ProductID: id,
		Name:      "Product " + id,
		Quantity:  qty,
		Price:     p,
		Total:     p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestProductByBarcode_Found(t *testing.T) {
	s := seedStore(t)

	p, err := s.ProductByBarcode(context.Background(), "869001")
	require.NoError(t, err)
	assert.Equal(t, "A", p.ID)
	assert.Equal(t, 5, p.Quantity)
}

func TestProductByBarcode_NotFound(t *testing.T) {
	s := seedStore(t)

	_, err := s.ProductByBarcode(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateSale_DecrementsStock(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	sale, err := s.CreateSale(ctx, saleReq(item("A", 2, "10.00"), item("B", 3, "5.50")))
	require.NoError(t, err)

	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, "36.50", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "36.50", sale.FinalAmount.StringFixed(2))

	a, err := s.ProductByBarcode(ctx, "869001")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Quantity)

	b, err := s.ProductByBarcode(ctx, "869002")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Quantity)
}

func TestCreateSale_AppliesDiscount(t *testing.T) {
	s := seedStore(t)

	req := saleReq(item("A", 2, "10.00"))
	req.Discount = decimal.RequireFromString("3.00")

	sale, err := s.CreateSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "20.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "17.00", sale.FinalAmount.StringFixed(2))
}

func TestCreateSale_DiscountClampsAtZero(t *testing.T) {
	s := seedStore(t)

	req := saleReq(item("A", 1, "10.00"))
	req.Discount = decimal.RequireFromString("50.00")

	sale, err := s.CreateSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "0.00", sale.FinalAmount.StringFixed(2))
}

func TestCreateSale_ConflictRejectsWholeSale(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	// B only has 3 in stock; the whole sale is rejected, A untouched.
	_, err := s.CreateSale(ctx, saleReq(item("A", 2, "10.00"), item("B", 4, "5.50")))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"B"}, conflict.ProductIDs)

	a, err := s.ProductByBarcode(ctx, "869001")
	require.NoError(t, err)
	assert.Equal(t, 5, a.Quantity)
}

func TestCreateSale_ReportsAllConflicts(t *testing.T) {
	s := seedStore(t)

	_, err := s.CreateSale(context.Background(),
		saleReq(item("A", 9, "10.00"), item("B", 9, "5.50"), item("ghost", 1, "1.00")))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ElementsMatch(t, []string{"A", "B", "ghost"}, conflict.ProductIDs)
}

func TestCreateSale_Validation(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	_, err := s.CreateSale(ctx, saleReq())
	assert.ErrorIs(t, err, ErrEmptySale)

	req := saleReq(item("A", 1, "10.00"))
	req.PaymentMethod = "bitcoin"
	_, err = s.CreateSale(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidPayment)

	req = saleReq(item("A", 0, "10.00"))
	req.PaymentMethod = domain.PaymentCard
	_, err = s.CreateSale(ctx, req)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateSale_WritesOutboxEvent(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	sale, err := s.CreateSale(ctx, saleReq(item("A", 1, "10.00")))
	require.NoError(t, err)

	events, err := s.UnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, sale.ID, events[0].AggregateID)
	assert.Equal(t, "sale.committed", events[0].EventType)

	require.NoError(t, s.MarkEventProcessed(ctx, events[0].ID))
	events, err = s.UnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateSale_ConcurrentTillsNeverOversell(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	// Ten tills race for product B's 3 units, one unit each; exactly three
	// sales can commit.
	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateSale(ctx, saleReq(item("B", 1, "5.50")))
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, committed)
	b, err := s.ProductByBarcode(ctx, "869002")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Quantity)
}

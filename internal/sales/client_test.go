package sales

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/checkout"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleRequest() *domain.SaleRequest {
	return &domain.SaleRequest{
		Items: []domain.SaleItem{
			{
				ProductID: "A",
				Name:      "Sterile Gauze",
				Quantity:  2,
				Price:     decimal.RequireFromString("10.00"),
				Total:     decimal.RequireFromString("20.00"),
			},
		},
		TotalAmount:   decimal.RequireFromString("20.00"),
		Discount:      decimal.RequireFromString("3.00"),
		PaymentMethod: domain.PaymentCash,
	}
}

func TestSubmit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sales", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req domain.SaleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "20.00", req.TotalAmount.StringFixed(2))
		assert.Equal(t, domain.PaymentCash, req.PaymentMethod)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Sale{
			ID:            "sale-1",
			Items:         req.Items,
			Subtotal:      req.TotalAmount,
			Discount:      req.Discount,
			FinalAmount:   decimal.RequireFromString("17.00"),
			PaymentMethod: req.PaymentMethod,
			CreatedAt:     time.Now().UTC(),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	sale, err := client.Submit(context.Background(), saleRequest())
	require.NoError(t, err)
	assert.Equal(t, "sale-1", sale.ID)
	assert.Equal(t, "17.00", sale.FinalAmount.StringFixed(2))
}

func TestSubmit_StockConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":                   "insufficient stock",
			"conflicting_product_ids": []string{"A", "B"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	_, err := client.Submit(context.Background(), saleRequest())

	var conflict *checkout.StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"A", "B"}, conflict.ProductIDs)
}

func TestSubmit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	_, err := client.Submit(context.Background(), saleRequest())
	require.Error(t, err)

	var conflict *checkout.StockConflictError
	assert.False(t, errors.As(err, &conflict))
}

func TestSubmit_CancelledContext(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	client := NewClient(srv.URL, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled submission surfaces as an error, never as a committed sale.
	sale, err := client.Submit(ctx, saleRequest())
	require.Error(t, err)
	assert.Nil(t, sale)
}

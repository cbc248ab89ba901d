package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByBarcode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/barcode/869001", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(testProduct())
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	p, err := client.FindByBarcode(context.Background(), "869001")
	require.NoError(t, err)
	assert.Equal(t, "A", p.ID)
	assert.Equal(t, "Sterile Gauze", p.Name)
	assert.Equal(t, 7, p.Quantity)
	assert.Equal(t, "10.00", p.SalePrice.StringFixed(2))
}

func TestFindByBarcode_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	_, err := client.FindByBarcode(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestFindByBarcode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)

	_, err := client.FindByBarcode(context.Background(), "869001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
}

func TestFindByBarcode_BreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.FindByBarcode(ctx, "869001")
		require.Error(t, err)
	}

	// The breaker is open now; the next lookup fails fast without a call.
	_, err := client.FindByBarcode(ctx, "869001")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), hits.Load())
}

func TestFindByBarcode_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	// Unknown barcodes are healthy answers; scanning many of them must not
	// open the breaker.
	for i := 0; i < 10; i++ {
		_, err := client.FindByBarcode(ctx, "000000")
		assert.ErrorIs(t, err, ErrProductNotFound)
	}
}

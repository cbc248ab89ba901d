package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client calls GET {base}/products/barcode/{code}. Lookups go through a
// circuit breaker so a dead catalog fails fast at the till instead of
// stalling every scan.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Product]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    "catalog",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// An unknown barcode is a healthy answer, not a catalog outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProductNotFound)
		},
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*domain.Product](settings),
	}
}

func (c *Client) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return c.breaker.Execute(func() (*domain.Product, error) {
		return c.fetch(ctx, barcode)
	})
}

func (c *Client) fetch(ctx context.Context, barcode string) (*domain.Product, error) {
	endpoint := fmt.Sprintf("%s/products/barcode/%s", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var p domain.Product
		if e2 := json.NewDecoder(resp.Body).Decode(&p); e2 != nil {
			return nil, fmt.Errorf("decode product: %w", e2)
		}
		return &p, nil
	case http.StatusNotFound:
		return nil, ErrProductNotFound
	default:
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}
}

// Package sales submits committed carts to the sale persistence
// collaborator.
package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/checkout"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// conflictResponse is the collaborator's 409 body on a stock rejection.
type conflictResponse struct {
	Error                 string   `json:"error"`
	ConflictingProductIDs []string `json:"conflicting_product_ids"`
}

// Client implements checkout.SaleSubmitter over POST {base}/sales. The
// collaborator either commits the whole sale (decrementing stock in the
// same transaction) or rejects it whole with the offending product ids.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Submit(ctx context.Context, saleReq *domain.SaleRequest) (*domain.Sale, error) {
	body, err := json.Marshal(saleReq)
	if err != nil {
		return nil, fmt.Errorf("marshal sale request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sales", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sale request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Includes context cancellation: the caller must not treat an
		// errored submission as committed.
		return nil, fmt.Errorf("sale submission failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var sale domain.Sale
		if e2 := json.NewDecoder(resp.Body).Decode(&sale); e2 != nil {
			return nil, fmt.Errorf("decode sale: %w", e2)
		}
		return &sale, nil
	case http.StatusConflict:
		var conflict conflictResponse
		if e2 := json.NewDecoder(resp.Body).Decode(&conflict); e2 != nil {
			return nil, fmt.Errorf("decode conflict response: %w", e2)
		}
		return nil, &checkout.StockConflictError{ProductIDs: conflict.ConflictingProductIDs}
	default:
		return nil, fmt.Errorf("sale service returned status %d", resp.StatusCode)
	}
}

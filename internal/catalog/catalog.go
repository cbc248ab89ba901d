// Package catalog resolves scanned barcodes against the product catalog
// collaborator.
package catalog

import (
	"context"
	"errors"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCacheMiss       = errors.New("cache miss")
)

// Finder resolves a barcode to a product record.
type Finder interface {
	FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
}

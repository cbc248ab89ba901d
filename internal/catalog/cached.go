package catalog

import (
	"context"
	"errors"
	"log"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedFinder is a read-through cache in front of a Finder. Concurrent
// lookups for the same barcode are collapsed with singleflight so a scanner
// firing bursts of events produces one upstream call. Cache failures are
// logged and bypassed; only the upstream answer is authoritative.
type CachedFinder struct {
	upstream Finder
	cache    ProductCache
	sfg      singleflight.Group
}

func NewCachedFinder(upstream Finder, cache ProductCache) *CachedFinder {
	return &CachedFinder{
		upstream: upstream,
		cache:    cache,
	}
}

func (f *CachedFinder) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	v, err, _ := f.sfg.Do(barcode, func() (interface{}, error) {
		p, err := f.cache.Get(ctx, barcode)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err)
		}

		p, err = f.upstream.FindByBarcode(ctx, barcode)
		if err != nil {
			return nil, err
		}

		go func() {
			if e2 := f.cache.Set(context.Background(), p); e2 != nil {
				log.Printf("cache set error: %v", e2)
			}
		}()

		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// Invalidate drops a cached barcode, used after a committed sale changed
// the product's stock.
func (f *CachedFinder) Invalidate(ctx context.Context, barcode string) {
	if err := f.cache.Delete(ctx, barcode); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

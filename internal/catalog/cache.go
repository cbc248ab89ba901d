package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProductCache stores barcode lookups.
type ProductCache interface {
	Get(ctx context.Context, barcode string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, barcode string) error
}

// RedisCache keeps barcode lookups briefly. The TTL is short because the
// cached quantity doubles as the stock snapshot for new cart lines, and a
// jitter spreads expiry so a shelf of identical scans does not refill at
// once.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Second,
	}
}

func (r *RedisCache) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(barcode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var p domain.Product
	if e2 := json.Unmarshal(data, &p); e2 != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", e2)
	}
	return &p, nil
}

func (r *RedisCache) Set(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Second
	if e2 := r.client.Set(ctx, cacheKey(product.Barcode), data, r.baseTTL+jitter).Err(); e2 != nil {
		return fmt.Errorf("redis set failed: %w", e2)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, barcode string) error {
	if err := r.client.Del(ctx, cacheKey(barcode)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(barcode string) string {
	return fmt.Sprintf("product:barcode:%s", barcode)
}

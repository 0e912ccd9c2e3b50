package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/wholesale-backoffice/pkg/logger"
)

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// StockCache keeps best-effort per-product stock entries for fast read
// paths. Entries are short-lived and never authoritative: readers that need
// correctness must read the product row.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStockCache creates a stock cache with the given entry TTL.
func NewStockCache(client *redis.Client, ttl time.Duration) *StockCache {
	return &StockCache{client: client, ttl: ttl}
}

func stockKey(productID uint) string {
	return fmt.Sprintf("product_%d_stock", productID)
}

// SetStock refreshes the cached stock value for a product.
func (c *StockCache) SetStock(ctx context.Context, productID uint, stock int) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Set(ctx, stockKey(productID), stock, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stock for product %d: %w", productID, err)
	}
	return nil
}

// GetStock returns the cached stock value and whether a cached entry existed.
func (c *StockCache) GetStock(ctx context.Context, productID uint) (int, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}

	val, err := c.client.Get(ctx, stockKey(productID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx).
				Err(err).
				Uint("product_id", productID).
				Msg("Stock cache read failed")
		}
		return 0, false
	}

	stock, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return stock, true
}

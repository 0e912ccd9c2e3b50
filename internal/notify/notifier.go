package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/wholesale-backoffice/internal/product/domain"
	"github.com/tair/wholesale-backoffice/kafka"
	"github.com/tair/wholesale-backoffice/pkg/cache"
	"github.com/tair/wholesale-backoffice/pkg/logger"
)

// StockUpdatesChannel is the redis pub/sub channel stock changes go out on.
const StockUpdatesChannel = "stock_updates"

// ProductReader reads current product state for cache refreshes.
type ProductReader interface {
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
}

// Broadcaster pushes a message to live WebSocket subscribers.
type Broadcaster interface {
	Broadcast(message string)
}

// StockPublisher emits stock-changed events to Kafka.
type StockPublisher interface {
	PublishStockChanged(ctx context.Context, event kafka.StockChangedEvent) error
}

// StockNotifier fans a committed stock mutation out to the stock cache,
// the redis pub/sub channel, Kafka and WebSocket subscribers. Every leg is
// best-effort: the transaction has already committed, so failures are
// logged and swallowed rather than surfaced to the submitter.
type StockNotifier struct {
	products  ProductReader
	cache     *cache.StockCache
	redis     *redis.Client
	publisher StockPublisher
	hub       Broadcaster
}

// NewStockNotifier creates a notifier. Any dependency may be nil, in which
// case its leg is skipped.
func NewStockNotifier(products ProductReader, stockCache *cache.StockCache, redisClient *redis.Client, publisher StockPublisher, hub Broadcaster) *StockNotifier {
	return &StockNotifier{
		products:  products,
		cache:     stockCache,
		redis:     redisClient,
		publisher: publisher,
		hub:       hub,
	}
}

// StockChanged refreshes caches and notifies subscribers for the products
// touched by an order mutation.
func (n *StockNotifier) StockChanged(ctx context.Context, orderID uint, productIDs []uint) {
	n.refreshCache(ctx, productIDs)
	n.publishRedis(ctx, orderID, productIDs)
	n.publishKafka(ctx, orderID, productIDs)

	if n.hub != nil {
		n.hub.Broadcast("stock updated")
	}
}

func (n *StockNotifier) refreshCache(ctx context.Context, productIDs []uint) {
	if n.products == nil || n.cache == nil {
		return
	}
	for _, id := range productIDs {
		product, err := n.products.FindByID(ctx, id)
		if err != nil {
			logger.Warn(ctx).Err(err).Uint("product_id", id).Msg("Stock cache refresh skipped")
			continue
		}
		if err := n.cache.SetStock(ctx, id, product.Stock); err != nil {
			logger.Warn(ctx).Err(err).Uint("product_id", id).Msg("Stock cache write failed")
		}
	}
}

func (n *StockNotifier) publishRedis(ctx context.Context, orderID uint, productIDs []uint) {
	if n.redis == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":    orderID,
		"product_ids": productIDs,
		"timestamp":   time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := n.redis.Publish(ctx, StockUpdatesChannel, payload).Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Redis stock update publish failed")
	}
}

func (n *StockNotifier) publishKafka(ctx context.Context, orderID uint, productIDs []uint) {
	if n.publisher == nil {
		return
	}
	event := kafka.StockChangedEvent{
		OrderID:    orderID,
		ProductIDs: productIDs,
	}
	if err := n.publisher.PublishStockChanged(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Uint("order_id", orderID).Msg("Kafka stock update publish failed")
	}
}

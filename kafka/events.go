package kafka

import "time"

// StockChangedEvent is published after an order submission commits stock
// mutations. It carries only the affected product IDs; consumers re-fetch
// authoritative stock from the product rows.
type StockChangedEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	ProductIDs []uint    `json:"product_ids"`
	OrderID    uint      `json:"order_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeStockChanged = "stock.changed"
)

// Kafka topics
const (
	TopicStockChanged = "stock-changed"
)

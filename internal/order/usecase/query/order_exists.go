package query

import (
	"context"
	"errors"
	"time"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
)

// OrderExistsQuery asks whether any order with line items exists for a
// date, resolving to the archival tables for historical years.
type OrderExistsQuery struct {
	OrderDate time.Time
}

type OrderExistsHandler struct {
	orders domain.OrderStorage
}

func NewOrderExistsHandler(orders domain.OrderStorage) *OrderExistsHandler {
	return &OrderExistsHandler{orders: orders}
}

func (h *OrderExistsHandler) Handle(ctx context.Context, q OrderExistsQuery) (bool, error) {
	exists, err := h.orders.HasItemsForDate(ctx, q.OrderDate)
	if err != nil {
		// A year with no archival tables has no orders.
		if errors.Is(err, domain.ErrStorageNotFound) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

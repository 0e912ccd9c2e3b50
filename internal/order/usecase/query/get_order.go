package query

import (
	"context"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
)

// GetOrderQuery asks for one live order with its line items.
type GetOrderQuery struct {
	OrderID uint
}

type GetOrderHandler struct {
	orders domain.OrderStorage
}

func NewGetOrderHandler(orders domain.OrderStorage) *GetOrderHandler {
	return &GetOrderHandler{orders: orders}
}

func (h *GetOrderHandler) Handle(ctx context.Context, q GetOrderQuery) (*domain.Order, error) {
	order, err := h.orders.FindByID(ctx, q.OrderID)
	if err != nil {
		return nil, err
	}
	order.Items, err = h.orders.Items(ctx, order)
	if err != nil {
		return nil, err
	}
	return order, nil
}

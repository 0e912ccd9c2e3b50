package command

import (
	"context"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/pkg/logger"
)

// UpdateItemQuantityCommand corrects a single line item on an existing
// order without a full resubmission. Admins may correct locked dates.
type UpdateItemQuantityCommand struct {
	OrderID   uint
	ProductID uint
	Quantity  int
	IsAdmin   bool
}

// UpdateItemQuantityHandler applies a quantity correction. Stock is always
// adjusted by the delta: a correction that did not move stock would let
// recorded allocation drift from the physical pool.
type UpdateItemQuantityHandler struct {
	uow      domain.UnitOfWork
	notifier Notifier
}

func NewUpdateItemQuantityHandler(uow domain.UnitOfWork, notifier Notifier) *UpdateItemQuantityHandler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &UpdateItemQuantityHandler{uow: uow, notifier: notifier}
}

func (h *UpdateItemQuantityHandler) Handle(ctx context.Context, cmd UpdateItemQuantityCommand) (*domain.Order, error) {
	if cmd.Quantity < 0 {
		return nil, domain.ErrInvalidLineItem
	}

	var (
		result  *domain.Order
		changed bool
	)

	err := h.uow.Do(ctx, func(tx domain.RepositoryTx) error {
		orders := tx.Orders()

		order, err := orders.FindByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		lock, err := tx.Locks().Get(ctx, order.OrderDate)
		if err != nil {
			return err
		}
		if lock.IsLocked && !cmd.IsAdmin {
			return domain.ErrOrderLocked
		}

		lastRound, err := orders.MaxConfirmedRound(ctx, order.OrderDate)
		if err != nil {
			return err
		}
		if order.ShipmentRound < lastRound && !cmd.IsAdmin {
			return domain.ErrOrderAlreadyShipped
		}

		items, err := orders.Items(ctx, order)
		if err != nil {
			return err
		}
		oldQty, found := 0, false
		for _, item := range items {
			if item.ProductID == cmd.ProductID {
				oldQty, found = item.Quantity, true
				break
			}
		}
		if !found {
			return domain.ErrOrderItemNotFound
		}

		if cmd.Quantity != oldQty {
			if err := tx.Stock().ApplyDelta(ctx, cmd.ProductID, oldQty, cmd.Quantity); err != nil {
				return err
			}
			changed = true
		}

		if cmd.Quantity == 0 {
			err = orders.DeleteItem(ctx, order, cmd.ProductID)
		} else {
			err = orders.UpsertItem(ctx, order, cmd.ProductID, cmd.Quantity)
		}
		if err != nil {
			return err
		}

		order.Items, err = orders.Items(ctx, order)
		if err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		h.notifier.StockChanged(ctx, result.ID, []uint{cmd.ProductID})
		logger.Info(ctx).
			Uint("order_id", result.ID).
			Uint("product_id", cmd.ProductID).
			Int("quantity", cmd.Quantity).
			Bool("admin", cmd.IsAdmin).
			Msg("Order item quantity corrected")
	}
	return result, nil
}

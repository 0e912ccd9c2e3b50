package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/pkg/logger"
)

// Notifier is told about committed stock mutations so caches, subscribers
// and downstream consumers can refresh. Implementations must be best-effort:
// the order is already committed when they run.
type Notifier interface {
	StockChanged(ctx context.Context, orderID uint, productIDs []uint)
}

// NopNotifier discards notifications. Useful in tests and tooling.
type NopNotifier struct{}

func (NopNotifier) StockChanged(context.Context, uint, []uint) {}

// SubmitOrderCommand is one employee submission for a dispatch round.
type SubmitOrderCommand struct {
	EmployeeID    uint
	ClientID      *uint
	OrderDate     time.Time
	ShipmentRound int
	Totals        domain.OrderTotals
	Items         []domain.LineItem
}

// SubmitOrderHandler reconciles a submission against stored state inside a
// single transaction: it creates the order or merges into the existing one,
// moving stock by the per-product delta between old and new quantities.
type SubmitOrderHandler struct {
	uow      domain.UnitOfWork
	notifier Notifier
}

func NewSubmitOrderHandler(uow domain.UnitOfWork, notifier Notifier) *SubmitOrderHandler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SubmitOrderHandler{uow: uow, notifier: notifier}
}

// Handle runs the submission. On any error the transaction rolls back and
// orders, items and stock are untouched.
func (h *SubmitOrderHandler) Handle(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}

	var (
		result  *domain.Order
		touched []uint
	)

	err := h.uow.Do(ctx, func(tx domain.RepositoryTx) error {
		orders := tx.Orders()

		lastRound, err := orders.MaxConfirmedRound(ctx, cmd.OrderDate)
		if err != nil {
			return err
		}
		// A submission may target any open round up to the next one after
		// the last confirmed round, but never further ahead.
		if cmd.ShipmentRound > lastRound+1 {
			return fmt.Errorf("%w: round %d, last confirmed %d",
				domain.ErrInvalidShipmentRound, cmd.ShipmentRound, lastRound)
		}

		lock, err := tx.Locks().Get(ctx, cmd.OrderDate)
		if err != nil {
			return err
		}
		if lock.IsLocked {
			return domain.ErrOrderLocked
		}

		existing, err := orders.FindByTriple(ctx, cmd.EmployeeID, cmd.OrderDate, cmd.ShipmentRound)
		switch {
		case err == nil:
			result, touched, err = h.mergeExisting(ctx, tx, cmd, existing, lastRound)
			return err
		case errors.Is(err, domain.ErrOrderNotFound):
			result, touched, err = h.createNew(ctx, tx, cmd)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	if len(touched) > 0 {
		h.notifier.StockChanged(ctx, result.ID, touched)
	}
	return result, nil
}

// createNew inserts the order row and decrements stock for every line item.
// The unique index on (employee_id, order_date, shipment_round) is the
// authoritative guard against two submissions racing to create the same
// order; the items check below catches the race a step earlier.
func (h *SubmitOrderHandler) createNew(ctx context.Context, tx domain.RepositoryTx, cmd SubmitOrderCommand) (*domain.Order, []uint, error) {
	orders := tx.Orders()

	itemsExist, err := orders.ItemsExistForTriple(ctx, cmd.EmployeeID, cmd.OrderDate, cmd.ShipmentRound)
	if err != nil {
		return nil, nil, err
	}
	if itemsExist {
		return nil, nil, domain.ErrDuplicateSubmission
	}

	order := &domain.Order{
		EmployeeID:     cmd.EmployeeID,
		ClientID:       cmd.ClientID,
		OrderDate:      cmd.OrderDate,
		ShipmentRound:  cmd.ShipmentRound,
		TotalAmount:    cmd.Totals.TotalAmount,
		TotalIncentive: cmd.Totals.TotalIncentive,
		TotalBoxes:     cmd.Totals.TotalBoxes,
	}
	if err := orders.Create(ctx, order); err != nil {
		return nil, nil, err
	}

	var touched []uint
	for _, item := range cmd.Items {
		if item.Quantity == 0 {
			continue
		}
		if err := tx.Stock().Decrement(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, nil, err
		}
		if err := orders.UpsertItem(ctx, order, item.ProductID, item.Quantity); err != nil {
			return nil, nil, err
		}
		touched = append(touched, item.ProductID)
	}

	order.Items, err = orders.Items(ctx, order)
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx).
		Uint("order_id", order.ID).
		Uint("employee_id", cmd.EmployeeID).
		Int("shipment_round", cmd.ShipmentRound).
		Int("items", len(order.Items)).
		Msg("Order created")
	return order, touched, nil
}

// mergeExisting diffs the incoming line items against stored state and
// applies only the per-product deltas to stock. Quantity 0 removes the
// product and returns its full allocation to the pool. Products on the
// stored order but absent from the submission are left untouched.
func (h *SubmitOrderHandler) mergeExisting(ctx context.Context, tx domain.RepositoryTx, cmd SubmitOrderCommand, existing *domain.Order, lastRound int) (*domain.Order, []uint, error) {
	if cmd.ShipmentRound < lastRound {
		return nil, nil, domain.ErrOrderAlreadyShipped
	}

	orders := tx.Orders()
	if err := orders.UpdateTotals(ctx, existing, cmd.Totals); err != nil {
		return nil, nil, err
	}

	stored, err := orders.Items(ctx, existing)
	if err != nil {
		return nil, nil, err
	}
	oldQty := make(map[uint]int, len(stored))
	for _, item := range stored {
		oldQty[item.ProductID] = item.Quantity
	}

	var touched []uint
	for _, item := range cmd.Items {
		old := oldQty[item.ProductID]
		if item.Quantity == old {
			continue
		}

		if err := tx.Stock().ApplyDelta(ctx, item.ProductID, old, item.Quantity); err != nil {
			return nil, nil, err
		}

		if item.Quantity == 0 {
			err = orders.DeleteItem(ctx, existing, item.ProductID)
		} else {
			err = orders.UpsertItem(ctx, existing, item.ProductID, item.Quantity)
		}
		if err != nil {
			return nil, nil, err
		}
		touched = append(touched, item.ProductID)
	}

	existing.Items, err = orders.Items(ctx, existing)
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx).
		Uint("order_id", existing.ID).
		Uint("employee_id", cmd.EmployeeID).
		Int("shipment_round", cmd.ShipmentRound).
		Int("changed_products", len(touched)).
		Msg("Order reconciled")
	return existing, touched, nil
}

func validate(cmd SubmitOrderCommand) error {
	if cmd.EmployeeID == 0 {
		return fmt.Errorf("%w: employee_id is required", domain.ErrInvalidSubmission)
	}
	if cmd.OrderDate.IsZero() {
		return fmt.Errorf("%w: order_date is required", domain.ErrInvalidSubmission)
	}
	if cmd.ShipmentRound < 0 {
		return fmt.Errorf("%w: negative round", domain.ErrInvalidShipmentRound)
	}

	seen := make(map[uint]struct{}, len(cmd.Items))
	for _, item := range cmd.Items {
		if item.ProductID == 0 {
			return fmt.Errorf("%w: product_id is required", domain.ErrInvalidLineItem)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("%w: product %d has negative quantity", domain.ErrInvalidLineItem, item.ProductID)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("%w: product %d listed twice", domain.ErrInvalidLineItem, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/command"
	productdomain "github.com/tair/wholesale-backoffice/internal/product/domain"
)

// seedOrder creates an order with one line item through the submission
// handler so stock bookkeeping matches production behavior.
func seedOrder(t *testing.T, f *fixture, productID uint, quantity int) *domain.Order {
	t.Helper()
	order, err := f.handler.Handle(context.Background(), submission(domain.LineItem{ProductID: productID, Quantity: quantity}))
	require.NoError(t, err)
	return order
}

func TestUpdateItemQuantity_AdjustsStockByDelta(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	order := seedOrder(t, f, 7, 4)
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	updated, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  6,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, f.uow.ledger.stock[7])
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 6, updated.Items[0].Quantity)
}

func TestUpdateItemQuantity_CutReturnsStock(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	order := seedOrder(t, f, 7, 6)
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	_, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.uow.ledger.stock[7])
}

func TestUpdateItemQuantity_ZeroDeletesItem(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	order := seedOrder(t, f, 7, 4)
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	updated, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  0,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, f.uow.ledger.stock[7])
	assert.Empty(t, updated.Items)
}

func TestUpdateItemQuantity_UnknownItem(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	order := seedOrder(t, f, 7, 4)
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	_, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 99,
		Quantity:  1,
	})
	require.ErrorIs(t, err, domain.ErrOrderItemNotFound)
}

func TestUpdateItemQuantity_LockedDate(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	order := seedOrder(t, f, 7, 4)
	require.NoError(t, f.uow.locks.SetLocked(context.Background(), testDate, true))
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	_, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  2,
	})
	require.ErrorIs(t, err, domain.ErrOrderLocked)

	// Admins may correct locked dates
	_, err = handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  2,
		IsAdmin:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.uow.ledger.stock[7])
}

func TestUpdateItemQuantity_ShippedRound(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	order := seedOrder(t, f, 7, 4)
	f.uow.storage.maxConfirmed[testDate.Format("2006-01-02")] = 2
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	_, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  2,
	})
	require.ErrorIs(t, err, domain.ErrOrderAlreadyShipped)

	_, err = handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  2,
		IsAdmin:   true,
	})
	require.NoError(t, err)
}

func TestUpdateItemQuantity_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(map[uint]int{7: 5})
	order := seedOrder(t, f, 7, 4)
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	_, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   order.ID,
		ProductID: 7,
		Quantity:  10,
	})

	var insufficient *productdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, f.uow.ledger.stock[7])
	assert.Equal(t, 4, f.uow.storage.items[order.ID][7])
}

func TestUpdateItemQuantity_NegativeRejected(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	handler := command.NewUpdateItemQuantityHandler(f.uow, f.notifier)

	_, err := handler.Handle(context.Background(), command.UpdateItemQuantityCommand{
		OrderID:   1,
		ProductID: 7,
		Quantity:  -1,
	})
	require.ErrorIs(t, err, domain.ErrInvalidLineItem)
}

func TestSetOrderLock(t *testing.T) {
	locks := newFakeLocks()
	handler := command.NewSetOrderLockHandler(locks)
	ctx := context.Background()

	boolPtr := func(v bool) *bool { return &v }

	lock, err := handler.Handle(ctx, command.SetOrderLockCommand{LockDate: testDate, Locked: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, lock.IsLocked)
	assert.False(t, lock.IsFinalized)

	// Finalizing leaves the locked flag alone
	lock, err = handler.Handle(ctx, command.SetOrderLockCommand{LockDate: testDate, Finalized: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, lock.IsLocked)
	assert.True(t, lock.IsFinalized)

	lock, err = handler.Handle(ctx, command.SetOrderLockCommand{LockDate: testDate, Locked: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, lock.IsLocked)
	assert.True(t, lock.IsFinalized)
}

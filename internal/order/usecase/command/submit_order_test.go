package command_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/command"
	productdomain "github.com/tair/wholesale-backoffice/internal/product/domain"
)

// ---- in-memory fakes ----

type fakeLedger struct {
	stock map[uint]int
}

func (l *fakeLedger) LockForUpdate(_ context.Context, productID uint) (*productdomain.Product, error) {
	stock, ok := l.stock[productID]
	if !ok {
		return nil, productdomain.ErrProductNotFound
	}
	return &productdomain.Product{ID: productID, Stock: stock}, nil
}

func (l *fakeLedger) Decrement(ctx context.Context, productID uint, amount int) error {
	product, err := l.LockForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	if product.Stock < amount {
		return &productdomain.InsufficientStockError{
			ProductID: productID,
			Requested: amount,
			Remaining: product.Stock,
		}
	}
	l.stock[productID] -= amount
	return nil
}

func (l *fakeLedger) Increment(ctx context.Context, productID uint, amount int) error {
	if _, err := l.LockForUpdate(ctx, productID); err != nil {
		return err
	}
	l.stock[productID] += amount
	return nil
}

func (l *fakeLedger) ApplyDelta(ctx context.Context, productID uint, oldQty, newQty int) error {
	switch {
	case newQty > oldQty:
		return l.Decrement(ctx, productID, newQty-oldQty)
	case newQty < oldQty:
		return l.Increment(ctx, productID, oldQty-newQty)
	default:
		return nil
	}
}

type fakeStorage struct {
	nextID       uint
	orders       map[string]*domain.Order
	items        map[uint]map[uint]int
	maxConfirmed map[string]int

	// simulates line items created by a concurrent submission between the
	// order lookup and the race check
	phantomItemsFor string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		orders:       make(map[string]*domain.Order),
		items:        make(map[uint]map[uint]int),
		maxConfirmed: make(map[string]int),
	}
}

func tripleKey(employeeID uint, date time.Time, round int) string {
	return fmt.Sprintf("%d|%s|%d", employeeID, date.Format("2006-01-02"), round)
}

func (s *fakeStorage) FindByTriple(_ context.Context, employeeID uint, orderDate time.Time, round int) (*domain.Order, error) {
	order, ok := s.orders[tripleKey(employeeID, orderDate, round)]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *fakeStorage) FindByID(_ context.Context, id uint) (*domain.Order, error) {
	for _, order := range s.orders {
		if order.ID == id {
			clone := *order
			return &clone, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (s *fakeStorage) Create(_ context.Context, order *domain.Order) error {
	key := tripleKey(order.EmployeeID, order.OrderDate, order.ShipmentRound)
	if _, exists := s.orders[key]; exists {
		return domain.ErrDuplicateSubmission
	}
	s.nextID++
	order.ID = s.nextID
	clone := *order
	s.orders[key] = &clone
	s.items[order.ID] = make(map[uint]int)
	return nil
}

func (s *fakeStorage) UpdateTotals(_ context.Context, order *domain.Order, totals domain.OrderTotals) error {
	stored, ok := s.orders[tripleKey(order.EmployeeID, order.OrderDate, order.ShipmentRound)]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.TotalAmount = totals.TotalAmount
	stored.TotalIncentive = totals.TotalIncentive
	stored.TotalBoxes = totals.TotalBoxes
	order.TotalAmount = totals.TotalAmount
	order.TotalIncentive = totals.TotalIncentive
	order.TotalBoxes = totals.TotalBoxes
	return nil
}

func (s *fakeStorage) Items(_ context.Context, order *domain.Order) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	for productID, qty := range s.items[order.ID] {
		items = append(items, domain.OrderItem{OrderID: order.ID, ProductID: productID, Quantity: qty})
	}
	return items, nil
}

func (s *fakeStorage) UpsertItem(_ context.Context, order *domain.Order, productID uint, quantity int) error {
	s.items[order.ID][productID] = quantity
	return nil
}

func (s *fakeStorage) DeleteItem(_ context.Context, order *domain.Order, productID uint) error {
	delete(s.items[order.ID], productID)
	return nil
}

func (s *fakeStorage) HasItemsForDate(_ context.Context, orderDate time.Time) (bool, error) {
	for _, order := range s.orders {
		if order.OrderDate.Format("2006-01-02") == orderDate.Format("2006-01-02") && len(s.items[order.ID]) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStorage) ItemsExistForTriple(_ context.Context, employeeID uint, orderDate time.Time, round int) (bool, error) {
	key := tripleKey(employeeID, orderDate, round)
	if s.phantomItemsFor == key {
		return true, nil
	}
	order, ok := s.orders[key]
	return ok && len(s.items[order.ID]) > 0, nil
}

func (s *fakeStorage) MaxConfirmedRound(_ context.Context, orderDate time.Time) (int, error) {
	return s.maxConfirmed[orderDate.Format("2006-01-02")], nil
}

type fakeLocks struct {
	locks map[string]*domain.OrderLock
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{locks: make(map[string]*domain.OrderLock)}
}

func (l *fakeLocks) Get(_ context.Context, lockDate time.Time) (*domain.OrderLock, error) {
	if lock, ok := l.locks[lockDate.Format("2006-01-02")]; ok {
		clone := *lock
		return &clone, nil
	}
	return &domain.OrderLock{LockDate: lockDate}, nil
}

func (l *fakeLocks) SetLocked(_ context.Context, lockDate time.Time, locked bool) error {
	key := lockDate.Format("2006-01-02")
	if _, ok := l.locks[key]; !ok {
		l.locks[key] = &domain.OrderLock{LockDate: lockDate}
	}
	l.locks[key].IsLocked = locked
	return nil
}

func (l *fakeLocks) SetFinalized(_ context.Context, lockDate time.Time, finalized bool) error {
	key := lockDate.Format("2006-01-02")
	if _, ok := l.locks[key]; !ok {
		l.locks[key] = &domain.OrderLock{LockDate: lockDate}
	}
	l.locks[key].IsFinalized = finalized
	return nil
}

// fakeUnitOfWork snapshots all state before fn and restores it when fn
// fails, mirroring transaction rollback.
type fakeUnitOfWork struct {
	mu      sync.Mutex
	ledger  *fakeLedger
	storage *fakeStorage
	locks   *fakeLocks
}

func (u *fakeUnitOfWork) Orders() domain.OrderStorage              { return u.storage }
func (u *fakeUnitOfWork) Locks() domain.OrderLockStore             { return u.locks }
func (u *fakeUnitOfWork) Stock() productdomain.StockLedger         { return u.ledger }

func (u *fakeUnitOfWork) Do(_ context.Context, fn func(tx domain.RepositoryTx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	stockSnap := make(map[uint]int, len(u.ledger.stock))
	for k, v := range u.ledger.stock {
		stockSnap[k] = v
	}
	ordersSnap := make(map[string]*domain.Order, len(u.storage.orders))
	for k, v := range u.storage.orders {
		clone := *v
		ordersSnap[k] = &clone
	}
	itemsSnap := make(map[uint]map[uint]int, len(u.storage.items))
	for id, items := range u.storage.items {
		clone := make(map[uint]int, len(items))
		for pid, qty := range items {
			clone[pid] = qty
		}
		itemsSnap[id] = clone
	}
	nextIDSnap := u.storage.nextID

	if err := fn(u); err != nil {
		u.ledger.stock = stockSnap
		u.storage.orders = ordersSnap
		u.storage.items = itemsSnap
		u.storage.nextID = nextIDSnap
		return err
	}
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	orderIDs []uint
	products [][]uint
}

func (n *recordingNotifier) StockChanged(_ context.Context, orderID uint, productIDs []uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orderIDs = append(n.orderIDs, orderID)
	n.products = append(n.products, productIDs)
}

// ---- test fixture ----

type fixture struct {
	uow      *fakeUnitOfWork
	notifier *recordingNotifier
	handler  *command.SubmitOrderHandler
}

func newFixture(stock map[uint]int) *fixture {
	uow := &fakeUnitOfWork{
		ledger:  &fakeLedger{stock: stock},
		storage: newFakeStorage(),
		locks:   newFakeLocks(),
	}
	notifier := &recordingNotifier{}
	return &fixture{
		uow:      uow,
		notifier: notifier,
		handler:  command.NewSubmitOrderHandler(uow, notifier),
	}
}

var testDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func submission(items ...domain.LineItem) command.SubmitOrderCommand {
	return command.SubmitOrderCommand{
		EmployeeID:    1,
		OrderDate:     testDate,
		ShipmentRound: 1,
		Totals: domain.OrderTotals{
			TotalAmount: decimal.NewFromInt(100),
			TotalBoxes:  len(items),
		},
		Items: items,
	}
}

// ---- tests ----

func TestSubmitOrder_CreatesOrderAndDecrementsStock(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})

	order, err := f.handler.Handle(context.Background(), submission(domain.LineItem{ProductID: 7, Quantity: 4}))
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, 6, f.uow.ledger.stock[7])
	require.Len(t, order.Items, 1)
	assert.Equal(t, 4, order.Items[0].Quantity)
	require.Len(t, f.notifier.products, 1)
	assert.Equal(t, []uint{7}, f.notifier.products[0])
}

func TestSubmitOrder_ReconcileAppliesDeltaOnly(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 4}))
	require.NoError(t, err)
	require.Equal(t, 6, f.uow.ledger.stock[7])

	// Raise to 7: only the difference of 3 leaves the pool
	order, err := f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 7}))
	require.NoError(t, err)
	assert.Equal(t, 3, f.uow.ledger.stock[7])
	require.Len(t, order.Items, 1)
	assert.Equal(t, 7, order.Items[0].Quantity)
}

func TestSubmitOrder_InsufficientStockRollsBackEverything(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 4}))
	require.NoError(t, err)
	_, err = f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 7}))
	require.NoError(t, err)

	// Raise to 10 needs 3 more than the 3 remaining
	_, err = f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 10}))

	var insufficient *productdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint(7), insufficient.ProductID)

	assert.Equal(t, 3, f.uow.ledger.stock[7])
	order, err := f.uow.storage.FindByTriple(ctx, 1, testDate, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, f.uow.storage.items[order.ID][7], "stored quantity must survive the failed resubmission")
}

func TestSubmitOrder_MultiItemFailureRollsBackAllItems(t *testing.T) {
	f := newFixture(map[uint]int{1: 100, 2: 1})

	_, err := f.handler.Handle(context.Background(), submission(
		domain.LineItem{ProductID: 1, Quantity: 10},
		domain.LineItem{ProductID: 2, Quantity: 5},
	))

	var insufficient *productdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 100, f.uow.ledger.stock[1], "first item decrement must roll back")
	assert.Equal(t, 1, f.uow.ledger.stock[2])
	assert.Empty(t, f.uow.storage.orders)
}

func TestSubmitOrder_LockedDateRejected(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	require.NoError(t, f.uow.locks.SetLocked(context.Background(), testDate, true))

	_, err := f.handler.Handle(context.Background(), submission(domain.LineItem{ProductID: 7, Quantity: 1}))
	require.ErrorIs(t, err, domain.ErrOrderLocked)
	assert.Equal(t, 10, f.uow.ledger.stock[7])
}

func TestSubmitOrder_Idempotence(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	ctx := context.Background()
	payload := submission(domain.LineItem{ProductID: 7, Quantity: 4})

	_, err := f.handler.Handle(ctx, payload)
	require.NoError(t, err)
	stockAfterFirst := f.uow.ledger.stock[7]

	_, err = f.handler.Handle(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, stockAfterFirst, f.uow.ledger.stock[7], "identical resubmission must not move stock")
	assert.Len(t, f.notifier.products, 1, "no stock change, no notification")
}

func TestSubmitOrder_RoundTripReturnsDifference(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 5}))
	require.NoError(t, err)
	stockAfterCreate := f.uow.ledger.stock[7]

	_, err = f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, stockAfterCreate+2, f.uow.ledger.stock[7])
}

func TestSubmitOrder_ZeroQuantityRemovesItem(t *testing.T) {
	f := newFixture(map[uint]int{7: 10, 8: 10})
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, submission(
		domain.LineItem{ProductID: 7, Quantity: 5},
		domain.LineItem{ProductID: 8, Quantity: 2},
	))
	require.NoError(t, err)

	order, err := f.handler.Handle(ctx, submission(
		domain.LineItem{ProductID: 7, Quantity: 0},
		domain.LineItem{ProductID: 8, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, 10, f.uow.ledger.stock[7], "full allocation returns to the pool")
	require.Len(t, order.Items, 1)
	assert.Equal(t, uint(8), order.Items[0].ProductID)
}

func TestSubmitOrder_ZeroQuantitySkippedOnCreate(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})

	order, err := f.handler.Handle(context.Background(), submission(domain.LineItem{ProductID: 7, Quantity: 0}))
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.Equal(t, 10, f.uow.ledger.stock[7])
	assert.Empty(t, f.notifier.products)
}

func TestSubmitOrder_RoundAheadOfNextRejected(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})

	cmd := submission(domain.LineItem{ProductID: 7, Quantity: 1})
	cmd.ShipmentRound = 2 // nothing confirmed yet, only round 1 may open
	_, err := f.handler.Handle(context.Background(), cmd)
	require.ErrorIs(t, err, domain.ErrInvalidShipmentRound)
}

func TestSubmitOrder_NextRoundAfterConfirmedAccepted(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	f.uow.storage.maxConfirmed[testDate.Format("2006-01-02")] = 1

	cmd := submission(domain.LineItem{ProductID: 7, Quantity: 1})
	cmd.ShipmentRound = 2
	_, err := f.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
}

func TestSubmitOrder_ShippedRoundRejected(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 4}))
	require.NoError(t, err)

	// Round 2 has since been confirmed; round 1 belongs to a shipped batch
	f.uow.storage.maxConfirmed[testDate.Format("2006-01-02")] = 2

	_, err = f.handler.Handle(ctx, submission(domain.LineItem{ProductID: 7, Quantity: 9}))
	require.ErrorIs(t, err, domain.ErrOrderAlreadyShipped)
	assert.Equal(t, 6, f.uow.ledger.stock[7])
}

func TestSubmitOrder_ConcurrentCreateLoserGetsDuplicate(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	f.uow.storage.phantomItemsFor = tripleKey(1, testDate, 1)

	_, err := f.handler.Handle(context.Background(), submission(domain.LineItem{ProductID: 7, Quantity: 4}))
	require.ErrorIs(t, err, domain.ErrDuplicateSubmission)
	assert.Equal(t, 10, f.uow.ledger.stock[7])
}

func TestSubmitOrder_UnknownProductRejected(t *testing.T) {
	f := newFixture(map[uint]int{})

	_, err := f.handler.Handle(context.Background(), submission(domain.LineItem{ProductID: 99, Quantity: 1}))
	require.ErrorIs(t, err, productdomain.ErrProductNotFound)
	assert.Empty(t, f.uow.storage.orders)
}

func TestSubmitOrder_Validation(t *testing.T) {
	f := newFixture(map[uint]int{7: 10})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*command.SubmitOrderCommand)
		wantErr error
	}{
		{
			name:    "missing employee",
			mutate:  func(c *command.SubmitOrderCommand) { c.EmployeeID = 0 },
			wantErr: domain.ErrInvalidSubmission,
		},
		{
			name:    "missing date",
			mutate:  func(c *command.SubmitOrderCommand) { c.OrderDate = time.Time{} },
			wantErr: domain.ErrInvalidSubmission,
		},
		{
			name:    "negative round",
			mutate:  func(c *command.SubmitOrderCommand) { c.ShipmentRound = -1 },
			wantErr: domain.ErrInvalidShipmentRound,
		},
		{
			name: "negative quantity",
			mutate: func(c *command.SubmitOrderCommand) {
				c.Items = []domain.LineItem{{ProductID: 7, Quantity: -1}}
			},
			wantErr: domain.ErrInvalidLineItem,
		},
		{
			name: "repeated product",
			mutate: func(c *command.SubmitOrderCommand) {
				c.Items = []domain.LineItem{{ProductID: 7, Quantity: 1}, {ProductID: 7, Quantity: 2}}
			},
			wantErr: domain.ErrInvalidLineItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := submission(domain.LineItem{ProductID: 7, Quantity: 1})
			tt.mutate(&cmd)
			_, err := f.handler.Handle(ctx, cmd)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitOrder_ConcurrentSameProductOneWinner(t *testing.T) {
	f := newFixture(map[uint]int{7: 5})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := submission(domain.LineItem{ProductID: 7, Quantity: 4})
			cmd.EmployeeID = uint(i + 1)
			_, errs[i] = f.handler.Handle(ctx, cmd)
		}(i)
	}
	wg.Wait()

	var okCount, insufficientCount int
	for _, err := range errs {
		var insufficient *productdomain.InsufficientStockError
		switch {
		case err == nil:
			okCount++
		case errors.As(err, &insufficient):
			insufficientCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount, "exactly one submission wins the remaining stock")
	assert.Equal(t, 1, insufficientCount)
	assert.Equal(t, 1, f.uow.ledger.stock[7])
}

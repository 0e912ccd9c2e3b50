package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	productdomain "github.com/tair/wholesale-backoffice/internal/product/domain"
)

// Order is one employee's submission for a (order_date, shipment_round)
// dispatch batch. The (employee_id, order_date, shipment_round) triple is
// unique: resubmissions for the same triple mutate the same row.
//
// Orders for the current calendar year live in the orders table; prior years
// live in order_<year> archival tables with the same schema. The struct maps
// to whichever physical table the partition resolver picks.
type Order struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	EmployeeID     uint            `json:"employee_id" gorm:"not null;uniqueIndex:idx_orders_employee_date_round"`
	ClientID       *uint           `json:"client_id,omitempty"`
	OrderDate      time.Time       `json:"order_date" gorm:"type:date;not null;uniqueIndex:idx_orders_employee_date_round"`
	ShipmentRound  int             `json:"shipment_round" gorm:"not null;uniqueIndex:idx_orders_employee_date_round"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(14,2);not null"`
	TotalIncentive decimal.Decimal `json:"total_incentive" gorm:"type:decimal(14,2);not null"`
	TotalBoxes     int             `json:"total_boxes" gorm:"not null;default:0"`
	IsConfirmed    bool            `json:"is_confirmed" gorm:"not null;default:false"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Items []OrderItem `json:"order_items" gorm:"-"`
}

// TableName specifies the live table name
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one product line on an order. At most one row exists per
// (order_id, product_id): quantity changes update in place.
type OrderItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	OrderID   uint `json:"order_id" gorm:"not null;uniqueIndex:idx_order_items_order_product"`
	ProductID uint `json:"product_id" gorm:"not null;uniqueIndex:idx_order_items_order_product"`
	Quantity  int  `json:"quantity" gorm:"not null"`
}

// TableName specifies the live table name
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderLock is the per-date administrative gate. A missing row means the
// date is open for ordering.
type OrderLock struct {
	LockDate    time.Time `json:"lock_date" gorm:"type:date;primaryKey"`
	IsLocked    bool      `json:"is_locked" gorm:"not null;default:false"`
	IsFinalized bool      `json:"is_finalized" gorm:"not null;default:false"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (OrderLock) TableName() string {
	return "order_locks"
}

// LineItem is one product/quantity pair in a submission. Quantity 0 asks
// for the product to be removed from the order.
type LineItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderTotals carries the summary columns of a submission.
type OrderTotals struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalIncentive decimal.Decimal `json:"total_incentive"`
	TotalBoxes     int             `json:"total_boxes"`
}

// OrderStorage is partition-aware order persistence: every method routes to
// the live or archival tables based on the year of the date (or of the order
// row) it operates on. Implementations return ErrStorageNotFound when an
// archival table for the requested year does not exist.
type OrderStorage interface {
	// FindByTriple returns the order for (employee, date, round), or
	// ErrOrderNotFound.
	FindByTriple(ctx context.Context, employeeID uint, orderDate time.Time, round int) (*Order, error)
	// FindByID looks the order up in the live table. Archival orders are
	// immutable and not addressable by ID.
	FindByID(ctx context.Context, id uint) (*Order, error)
	// Create inserts a new order row. A unique-violation on the triple
	// surfaces as ErrDuplicateSubmission.
	Create(ctx context.Context, order *Order) error
	// UpdateTotals rewrites the summary columns of an existing order.
	UpdateTotals(ctx context.Context, order *Order, totals OrderTotals) error
	// Items returns the line items of an order.
	Items(ctx context.Context, order *Order) ([]OrderItem, error)
	// UpsertItem sets the quantity for (order, product), inserting the row
	// if absent.
	UpsertItem(ctx context.Context, order *Order, productID uint, quantity int) error
	// DeleteItem removes the (order, product) line if present.
	DeleteItem(ctx context.Context, order *Order, productID uint) error
	// HasItemsForDate reports whether any order with at least one line item
	// exists for the date.
	HasItemsForDate(ctx context.Context, orderDate time.Time) (bool, error)
	// ItemsExistForTriple reports whether any line item is already attached
	// to an order matching the triple. Called after a FindByTriple miss it
	// detects a concurrent submission that created the order in between.
	ItemsExistForTriple(ctx context.Context, employeeID uint, orderDate time.Time, round int) (bool, error)
	// MaxConfirmedRound returns the highest confirmed shipment round for
	// the date, or 0 when none.
	MaxConfirmedRound(ctx context.Context, orderDate time.Time) (int, error)
}

// OrderLockStore reads and writes the per-date lock flags.
type OrderLockStore interface {
	// Get returns the lock row for the date; a missing row comes back as an
	// unlocked, unfinalized zero-value lock.
	Get(ctx context.Context, lockDate time.Time) (*OrderLock, error)
	// SetLocked upserts the is_locked flag for the date.
	SetLocked(ctx context.Context, lockDate time.Time, locked bool) error
	// SetFinalized upserts the is_finalized flag for the date.
	SetFinalized(ctx context.Context, lockDate time.Time, finalized bool) error
}

// RepositoryTx bundles the repositories bound to one open transaction.
// Stock and order writes obtained from the same RepositoryTx commit or roll
// back together.
type RepositoryTx interface {
	Orders() OrderStorage
	Locks() OrderLockStore
	Stock() productdomain.StockLedger
}

// UnitOfWork runs fn inside a single database transaction. Any error from
// fn rolls everything back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx RepositoryTx) error) error
}

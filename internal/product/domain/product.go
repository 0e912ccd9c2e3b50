package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog product. The stock column is owned by the
// StockLedger: nothing else may write it.
type Product struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ProductName  string          `json:"product_name" gorm:"not null;index"`
	DefaultPrice decimal.Decimal `json:"default_price" gorm:"type:decimal(12,2);not null"`
	Stock        int             `json:"stock" gorm:"not null;default:0"`
	BoxQuantity  int             `json:"box_quantity" gorm:"not null;default:1"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// ErrProductNotFound is returned when a product row does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrLockTimeout is returned when a product row lock could not be acquired
// within the database lock_timeout. The whole submission may be retried;
// retrying a single item is unsafe because the transaction is all-or-nothing.
var ErrLockTimeout = errors.New("timed out waiting for product row lock")

// InsufficientStockError reports a decrement that would drive stock
// negative. Remaining carries the stock observed under the row lock so the
// caller can surface an actionable message.
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Remaining int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %d insufficient stock (requested: %d, remaining: %d)",
		e.ProductID, e.Requested, e.Remaining)
}

// ProductRepository defines the contract for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindAll(ctx context.Context, limit, offset int) ([]Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uint) error
}

// StockLedger is the only component allowed to mutate Product.Stock. All
// operations take a row-level exclusive lock and must run inside the
// transaction of the enclosing order submission so that stock and order
// writes commit or roll back together.
type StockLedger interface {
	// LockForUpdate locks the product row for the rest of the transaction
	// and returns its current state.
	LockForUpdate(ctx context.Context, productID uint) (*Product, error)
	// Decrement subtracts amount under the row lock. Returns
	// *InsufficientStockError when stock < amount.
	Decrement(ctx context.Context, productID uint, amount int) error
	// Increment adds amount back under the row lock.
	Increment(ctx context.Context, productID uint, amount int) error
	// ApplyDelta reconciles a quantity change on an order item: a raise
	// decrements the difference, a cut increments it, equal is a no-op.
	ApplyDelta(ctx context.Context, productID uint, oldQty, newQty int) error
}

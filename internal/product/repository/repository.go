package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/wholesale-backoffice/internal/product/domain"
)

// pgLockNotAvailable is the class 55 code raised when lock_timeout expires
// while waiting on a row lock.
const pgLockNotAvailable = "55P03"

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{})
}

// WithTx returns a repository bound to an open transaction. Ledger
// operations are only meaningful on a TX-bound repository.
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: tx}
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Find(&products).Error
	return products, err
}

func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Product{}, id).Error
}

// LockForUpdate reads the product row under SELECT ... FOR UPDATE. The lock
// is held until the enclosing transaction commits or rolls back; concurrent
// submissions touching the same product serialize here.
func (r *GormProductRepository) LockForUpdate(ctx context.Context, productID uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, translateLockError(err)
	}
	return &product, nil
}

func (r *GormProductRepository) Decrement(ctx context.Context, productID uint, amount int) error {
	product, err := r.LockForUpdate(ctx, productID)
	if err != nil {
		return err
	}

	if product.Stock < amount {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: amount,
			Remaining: product.Stock,
		}
	}

	return r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock - ?", amount)).Error
}

func (r *GormProductRepository) Increment(ctx context.Context, productID uint, amount int) error {
	if _, err := r.LockForUpdate(ctx, productID); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", amount)).Error
}

func (r *GormProductRepository) ApplyDelta(ctx context.Context, productID uint, oldQty, newQty int) error {
	switch {
	case newQty > oldQty:
		return r.Decrement(ctx, productID, newQty-oldQty)
	case newQty < oldQty:
		return r.Increment(ctx, productID, oldQty-newQty)
	default:
		return nil
	}
}

func translateLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return domain.ErrLockTimeout
	}
	return err
}

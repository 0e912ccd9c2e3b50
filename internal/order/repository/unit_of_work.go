package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	productdomain "github.com/tair/wholesale-backoffice/internal/product/domain"
	productrepo "github.com/tair/wholesale-backoffice/internal/product/repository"
)

// GormUnitOfWork opens one database transaction per submission and hands
// the usecase transaction-bound repositories. A lock_timeout is set on the
// transaction so a submission stuck behind a row lock fails fast instead of
// holding a worker indefinitely.
type GormUnitOfWork struct {
	db          *gorm.DB
	resolver    *PartitionResolver
	lockTimeout time.Duration
}

func NewGormUnitOfWork(db *gorm.DB, resolver *PartitionResolver, lockTimeout time.Duration) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, resolver: resolver, lockTimeout: lockTimeout}
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(tx domain.RepositoryTx) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormRepositoryTx{tx: tx, resolver: u.resolver})
	})
}

type gormRepositoryTx struct {
	tx       *gorm.DB
	resolver *PartitionResolver
}

func (t *gormRepositoryTx) Orders() domain.OrderStorage {
	return NewGormOrderStorage(t.tx, t.resolver)
}

func (t *gormRepositoryTx) Locks() domain.OrderLockStore {
	return NewGormOrderLockStore(t.tx)
}

func (t *gormRepositoryTx) Stock() productdomain.StockLedger {
	return productrepo.NewGormProductRepositoryWithTracing(t.tx)
}

//go:build wireinject
// +build wireinject

package order

import (
	"time"

	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/wholesale-backoffice/internal/order/delivery/http"
	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/internal/order/repository"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/command"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/query"
)

// ProvideOrderStorage provides the partition-aware order storage
func ProvideOrderStorage(db *gorm.DB, resolver *repository.PartitionResolver) domain.OrderStorage {
	return repository.NewGormOrderStorage(db, resolver)
}

// ProvideLockStore provides the order lock store
func ProvideLockStore(db *gorm.DB) domain.OrderLockStore {
	return repository.NewGormOrderLockStore(db)
}

// ProvideUnitOfWork provides the transactional unit of work
func ProvideUnitOfWork(db *gorm.DB, resolver *repository.PartitionResolver, lockTimeout time.Duration) domain.UnitOfWork {
	return repository.NewGormUnitOfWork(db, resolver, lockTimeout)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideOrderStorage,
	ProvideLockStore,
	ProvideUnitOfWork,
)

// InitializeHTTPHandler initializes HTTP handler with all dependencies
func InitializeHTTPHandler(
	db *gorm.DB,
	resolver *repository.PartitionResolver,
	notifier command.Notifier,
	window query.OrderingWindow,
	clock func() time.Time,
	lockTimeout time.Duration,
) (*http.OrderHandler, error) {
	wire.Build(
		RepositorySet,
		http.NewOrderHandler,
	)
	return nil, nil
}

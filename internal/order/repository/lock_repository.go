package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
)

// GormOrderLockStore persists the per-date administrative lock flags.
type GormOrderLockStore struct {
	db *gorm.DB
}

func NewGormOrderLockStore(db *gorm.DB) *GormOrderLockStore {
	return &GormOrderLockStore{db: db}
}

func (r *GormOrderLockStore) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.OrderLock{})
}

// Get returns the lock row for the date. A missing row means the date was
// never locked and comes back as an open lock.
func (r *GormOrderLockStore) Get(ctx context.Context, lockDate time.Time) (*domain.OrderLock, error) {
	var lock domain.OrderLock
	err := r.db.WithContext(ctx).
		Where("lock_date = ?", dateOnly(lockDate)).
		First(&lock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.OrderLock{LockDate: dateOnly(lockDate)}, nil
		}
		return nil, err
	}
	return &lock, nil
}

func (r *GormOrderLockStore) SetLocked(ctx context.Context, lockDate time.Time, locked bool) error {
	return r.upsert(ctx, lockDate, "is_locked", locked)
}

func (r *GormOrderLockStore) SetFinalized(ctx context.Context, lockDate time.Time, finalized bool) error {
	return r.upsert(ctx, lockDate, "is_finalized", finalized)
}

func (r *GormOrderLockStore) upsert(ctx context.Context, lockDate time.Time, column string, value bool) error {
	lock := domain.OrderLock{LockDate: dateOnly(lockDate)}
	switch column {
	case "is_locked":
		lock.IsLocked = value
	case "is_finalized":
		lock.IsFinalized = value
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lock_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{column: value, "updated_at": time.Now()}),
		}).
		Create(&lock).Error
}

package query

import (
	"context"
	"time"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
)

// LockStatusQuery asks for the administrative gate flags of a date.
type LockStatusQuery struct {
	LockDate time.Time
}

type LockStatusHandler struct {
	locks domain.OrderLockStore
}

func NewLockStatusHandler(locks domain.OrderLockStore) *LockStatusHandler {
	return &LockStatusHandler{locks: locks}
}

func (h *LockStatusHandler) Handle(ctx context.Context, q LockStatusQuery) (*domain.OrderLock, error) {
	return h.locks.Get(ctx, q.LockDate)
}

package command

import (
	"context"
	"time"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/pkg/logger"
)

// SetOrderLockCommand flips the administrative gate flags for a date. Nil
// fields are left unchanged.
type SetOrderLockCommand struct {
	LockDate  time.Time
	Locked    *bool
	Finalized *bool
}

// SetOrderLockHandler handles locking and finalizing order dates
type SetOrderLockHandler struct {
	locks domain.OrderLockStore
}

func NewSetOrderLockHandler(locks domain.OrderLockStore) *SetOrderLockHandler {
	return &SetOrderLockHandler{locks: locks}
}

// Handle applies the requested flag changes and returns the resulting lock
// state.
func (h *SetOrderLockHandler) Handle(ctx context.Context, cmd SetOrderLockCommand) (*domain.OrderLock, error) {
	if cmd.Locked != nil {
		if err := h.locks.SetLocked(ctx, cmd.LockDate, *cmd.Locked); err != nil {
			return nil, err
		}
	}
	if cmd.Finalized != nil {
		if err := h.locks.SetFinalized(ctx, cmd.LockDate, *cmd.Finalized); err != nil {
			return nil, err
		}
	}

	lock, err := h.locks.Get(ctx, cmd.LockDate)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Time("lock_date", lock.LockDate).
		Bool("is_locked", lock.IsLocked).
		Bool("is_finalized", lock.IsFinalized).
		Msg("Order lock updated")
	return lock, nil
}

package query

import (
	"context"
	"errors"
	"time"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
)

// OrderingWindow is the daily time-of-day span during which first-time
// round submissions are accepted. Start and End are offsets from midnight;
// a Start after End wraps past midnight (the default 20:00-07:00 does).
type OrderingWindow struct {
	Start time.Duration
	End   time.Duration
}

// DefaultOrderingWindow is the 20:00-07:00 overnight ordering window.
func DefaultOrderingWindow() OrderingWindow {
	return OrderingWindow{Start: 20 * time.Hour, End: 7 * time.Hour}
}

// Contains reports whether the time of day of t falls inside the window.
func (w OrderingWindow) Contains(t time.Time) bool {
	offset := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	if w.Start <= w.End {
		return offset >= w.Start && offset < w.End
	}
	return offset >= w.Start || offset < w.End
}

// CurrentShipmentRoundQuery asks for the highest confirmed round of a date.
type CurrentShipmentRoundQuery struct {
	OrderDate time.Time
}

type CurrentShipmentRoundHandler struct {
	orders domain.OrderStorage
}

func NewCurrentShipmentRoundHandler(orders domain.OrderStorage) *CurrentShipmentRoundHandler {
	return &CurrentShipmentRoundHandler{orders: orders}
}

func (h *CurrentShipmentRoundHandler) Handle(ctx context.Context, q CurrentShipmentRoundQuery) (int, error) {
	return h.orders.MaxConfirmedRound(ctx, q.OrderDate)
}

// AvailableShipmentRoundQuery asks which round an employee may submit into.
type AvailableShipmentRoundQuery struct {
	OrderDate  time.Time
	EmployeeID uint
}

// AvailableShipmentRoundHandler computes the next open round. First-time
// submissions into a round are gated by the ordering window; resubmissions
// into a round the employee already has an order in are not.
type AvailableShipmentRoundHandler struct {
	orders domain.OrderStorage
	window OrderingWindow
	clock  func() time.Time
}

func NewAvailableShipmentRoundHandler(orders domain.OrderStorage, window OrderingWindow, clock func() time.Time) *AvailableShipmentRoundHandler {
	if clock == nil {
		clock = time.Now
	}
	return &AvailableShipmentRoundHandler{orders: orders, window: window, clock: clock}
}

func (h *AvailableShipmentRoundHandler) Handle(ctx context.Context, q AvailableShipmentRoundQuery) (int, error) {
	lastRound, err := h.orders.MaxConfirmedRound(ctx, q.OrderDate)
	if err != nil {
		return 0, err
	}
	next := lastRound + 1

	_, err = h.orders.FindByTriple(ctx, q.EmployeeID, q.OrderDate, next)
	switch {
	case err == nil:
		// Round already in progress for this employee; always open.
		return next, nil
	case errors.Is(err, domain.ErrOrderNotFound):
		if !h.window.Contains(h.clock()) {
			return 0, domain.ErrOutsideOrderingWindow
		}
		return next, nil
	default:
		return 0, err
	}
}

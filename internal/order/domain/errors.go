package domain

import "errors"

var (
	// ErrOrderNotFound is returned when no order matches the lookup.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderItemNotFound is returned when a line item lookup by ID misses.
	ErrOrderItemNotFound = errors.New("order item not found")

	// ErrOrderLocked is returned when the order date is administratively
	// locked against new or modified orders.
	ErrOrderLocked = errors.New("ordering is locked for this date")

	// ErrInvalidShipmentRound is returned when a submission targets a round
	// beyond the next one that may be opened.
	ErrInvalidShipmentRound = errors.New("invalid shipment round")

	// ErrOrderAlreadyShipped is returned when a submission targets an order
	// in a round that has already been confirmed for shipment.
	ErrOrderAlreadyShipped = errors.New("order belongs to an already-shipped round")

	// ErrDuplicateSubmission is returned when two submissions race to create
	// the same (employee, date, round) order; the loser gets this.
	ErrDuplicateSubmission = errors.New("duplicate order submission")

	// ErrOutsideOrderingWindow is returned when a first-time submission for
	// a round arrives outside the configured ordering window.
	ErrOutsideOrderingWindow = errors.New("outside ordering window")

	// ErrStorageNotFound is returned when no archival table exists for the
	// requested year.
	ErrStorageNotFound = errors.New("no order storage for requested year")

	// ErrInvalidSubmission is returned when a submission payload is
	// malformed (missing employee or date, bad line items).
	ErrInvalidSubmission = errors.New("invalid order submission")

	// ErrInvalidLineItem is returned when a submission carries a malformed
	// line item (missing product, negative quantity, repeated product).
	ErrInvalidLineItem = errors.New("invalid line item")
)

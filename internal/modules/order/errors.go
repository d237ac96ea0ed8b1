package order

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned when a referenced order does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrEmptyCart is returned when placement is attempted with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrForbidden is returned when the caller lacks ownership or admin privilege.
var ErrForbidden = errors.New("forbidden")

// ErrStatusConflict is returned when a transition loses a race: the order's
// status changed between being read and being updated.
var ErrStatusConflict = errors.New("order status changed concurrently")

// InvalidTransitionError is returned for a status transition outside the
// state machine's table.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

package order

import "context"

// Repository defines data access for orders.
type Repository interface {
	// Create persists a new order, its items and the initial status history
	// entry atomically in a transaction.
	Create(ctx context.Context, o *Order) error

	// GetByID retrieves an order with its items and status history.
	GetByID(ctx context.Context, id string) (*Order, error)

	// GetByNumber retrieves an order by its human-readable order number.
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListByUser returns all orders placed by a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)

	// List returns all orders, optionally filtered by status.
	List(ctx context.Context, status string) ([]*Order, error)

	// UpdateStatus moves an order from one status to another and appends a
	// history entry, in one transaction. The update is guarded on the
	// expected prior status: if the order's current status is not from, no
	// row changes and ErrStatusConflict is returned, so two concurrent
	// transitions from the same state cannot both succeed.
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus, note string) error

	// SetPaymentStatus updates the payment axis.
	SetPaymentStatus(ctx context.Context, id string, status PaymentStatus) error
}

package cart

import (
	"context"
	"errors"
)

// ErrCartNotFound is returned when a user has no cart yet.
var ErrCartNotFound = errors.New("cart not found")

// ErrItemNotFound is returned when a cart line does not exist.
var ErrItemNotFound = errors.New("cart item not found")

// ErrInvalidQuantity is returned when a requested quantity is below 1.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Repository defines data access for carts.
type Repository interface {
	// GetByUser loads a user's cart with its items, or ErrCartNotFound.
	GetByUser(ctx context.Context, userID string) (*Cart, error)

	// Create persists a new (possibly empty) cart.
	Create(ctx context.Context, c *Cart) error

	// Save replaces the cart's lines and derived totals atomically.
	Save(ctx context.Context, c *Cart) error

	// Clear empties the cart's lines and zeroes its totals. The cart row
	// itself survives; placement consumes a cart, it does not delete it.
	Clear(ctx context.Context, userID string) error
}

package cart

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a user's shopping cart. Each user has at most one, created lazily
// on first access. Subtotal and ItemCount are derived from Items and
// recomputed before every persist; they are never accepted from a caller.
type Cart struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Items     []*CartItem `json:"items"`
	Subtotal  float64     `json:"subtotal"`
	ItemCount int         `json:"item_count"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CartItem is one product line in a cart. UnitPrice is a snapshot of the
// catalog price, refreshed every time the product is added again.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// Recalculate recomputes the derived subtotal and item count from the current
// lines. It must be called before every persist.
func (c *Cart) Recalculate() {
	var subtotal float64
	count := 0
	for _, item := range c.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
		count += item.Quantity
	}
	c.Subtotal = round2(subtotal)
	c.ItemCount = count
}

// FindItem returns the line with the given id, or nil.
func (c *Cart) FindItem(itemID uuid.UUID) *CartItem {
	for _, item := range c.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// FindProduct returns the line holding the given product, or nil.
func (c *Cart) FindProduct(productID uuid.UUID) *CartItem {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item
		}
	}
	return nil
}

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateItemRequest is the payload for changing a line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

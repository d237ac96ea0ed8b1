package catalog

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus is the availability state of a product.
type ProductStatus string

const (
	StatusActive     ProductStatus = "active"
	StatusInactive   ProductStatus = "inactive"
	StatusOutOfStock ProductStatus = "out_of_stock"
)

// Product is an item in the store catalog. Stock is a non-negative counter;
// status tracks it: depletion to zero flips a product to out_of_stock and
// restocking flips it back to active. Only a manual update sets inactive.
type Product struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category"`
	Price       float64       `json:"price"`
	Stock       int           `json:"stock"`
	Status      ProductStatus `json:"status"`
	ImageURL    string        `json:"image_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreateProductRequest is the payload for adding a product to the catalog.
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url"`
}

// UpdateProductRequest is the payload for editing a product. Nil fields are
// left unchanged.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Status      *string  `json:"status"`
	ImageURL    *string  `json:"image_url"`
}

// ListFilter narrows a catalog listing.
type ListFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
	Page       int
	Limit      int
}

// DeriveStatus recomputes the status a product should carry for a given stock
// level. A manually deactivated product stays inactive regardless of stock.
func DeriveStatus(current ProductStatus, stock int) ProductStatus {
	if current == StatusInactive {
		return StatusInactive
	}
	if stock == 0 {
		return StatusOutOfStock
	}
	return StatusActive
}

package catalog

import "context"

// Repository defines the interface for product data storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// Store combines product CRUD with the stock ledger; the postgres
// implementation backs both with the same table.
type Store interface {
	Repository
	StockLedger
}

// StockLedger owns the per-product stock counter. Both operations must be
// atomic at the storage layer: concurrent decrements for the same product
// must never drive stock negative. Neither operation deduplicates repeated
// calls; callers invoke each exactly once per affected line.
type StockLedger interface {
	// DecrementStock reduces stock by qty. It fails with ErrProductNotFound,
	// *ProductUnavailableError or *InsufficientStockError without mutating
	// anything. Depletion to zero flips the product to out_of_stock.
	DecrementStock(ctx context.Context, productID string, qty int) error

	// RestoreStock adds qty back. A product that was out_of_stock becomes
	// active again once stock is positive.
	RestoreStock(ctx context.Context, productID string, qty int) error
}
